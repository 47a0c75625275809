package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seikyu/config"
	"seikyu/model"
)

func testCalculator() *Calculator {
	return NewCalculator(config.Config{
		StandardUnitPrice:  4170,
		TransportUnitPrice: 33,
		BurdenPriceTable:   []int{417, 834, 1251},
	})
}

func intPtr(v int) *int { return &v }

func TestCalculate_ManualUnitPriceIsGross(t *testing.T) {
	// 手入力単価は総額扱い。負担率を乗じて10円単位に丸める。
	c := testCalculator()
	item := c.Calculate("202504", model.PatientRecord{
		PatientID:       "P001",
		NameKanji:       "山田 太郎",
		InsuranceType:   "保険",
		BurdenRateRaw:   "3割",
		ManualUnitPrice: intPtr(4170),
	}, 6)

	assert.Equal(t, 4170, item.UnitPrice)
	assert.Equal(t, 25020, item.TreatmentAmount)
	assert.Equal(t, 198, item.TransportAmount)
	assert.Equal(t, 7510, item.BillingAmount) // round(25020 * 0.3)
	assert.Equal(t, 7510+198, item.GrandTotal)
	assert.Equal(t, []string{"202504"}, item.ReceiptMonths)
}

func TestCalculate_BurdenTableIsNetPrice(t *testing.T) {
	// 負担割合別単価は患者負担そのもの。billing == treatment になる。
	c := testCalculator()
	item := c.Calculate("202504", model.PatientRecord{
		PatientID:     "P002",
		InsuranceType: "保険",
		BurdenRateRaw: "1割",
		CarryOverRaw:  "1,000",
	}, 8)

	assert.Equal(t, 417, item.UnitPrice)
	assert.Equal(t, 3336, item.TreatmentAmount)
	assert.Equal(t, 264, item.TransportAmount)
	assert.Equal(t, 3336, item.BillingAmount)
	assert.Equal(t, 1000, item.CarryOver())
	assert.Equal(t, 4600, item.GrandTotal)
}

func TestCalculate_SuppressedCharges(t *testing.T) {
	c := testCalculator()

	tests := []struct {
		name    string
		patient model.PatientRecord
		visits  any
	}{
		{
			name: "マッサージのみは手入力単価より優先して抑止",
			patient: model.PatientRecord{
				PatientID:       "P010",
				InsuranceType:   "マッサージ",
				BurdenRateRaw:   "3",
				ManualUnitPrice: intPtr(4170),
			},
			visits: 5,
		},
		{
			name: "生活保護は抑止",
			patient: model.PatientRecord{
				PatientID:     "P011",
				InsuranceType: "生保",
				BurdenRateRaw: "1",
			},
			visits: 4,
		},
		{
			name: "医療助成ありは抑止",
			patient: model.PatientRecord{
				PatientID:            "P012",
				InsuranceType:        "保険",
				BurdenRateRaw:        "2",
				MedicalAssistanceRaw: "有",
			},
			visits: 4,
		},
		{
			name: "自費で手入力なしは抑止(往療費も発生しない)",
			patient: model.PatientRecord{
				PatientID:     "P013",
				InsuranceType: "自費",
			},
			visits: 4,
		},
		{
			name: "手入力単価0は意図的な上書きとして抑止",
			patient: model.PatientRecord{
				PatientID:       "P014",
				InsuranceType:   "保険",
				BurdenRateRaw:   "3",
				ManualUnitPrice: intPtr(0),
			},
			visits: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := c.Calculate("202504", tt.patient, tt.visits)
			assert.Equal(t, 0, item.TreatmentAmount)
			assert.Equal(t, 0, item.TransportAmount)
			assert.Equal(t, 0, item.BillingAmount)
			assert.Equal(t, item.CarryOver(), item.GrandTotal)
		})
	}
}

func TestCalculate_SelfPayWithManualPriceBillsFullAmount(t *testing.T) {
	// 自費+手入力は負担率を掛けず全額請求
	c := testCalculator()
	item := c.Calculate("202504", model.PatientRecord{
		PatientID:       "P020",
		InsuranceType:   "自費",
		ManualUnitPrice: intPtr(3000),
	}, 4)

	assert.Equal(t, 12000, item.TreatmentAmount)
	assert.Equal(t, 12000, item.BillingAmount)
	assert.Equal(t, 132, item.TransportAmount)
	assert.Equal(t, 12132, item.GrandTotal)
}

func TestCalculate_ZeroVisitsCarriesOverOnly(t *testing.T) {
	c := testCalculator()
	item := c.Calculate("202504", model.PatientRecord{
		PatientID:     "P030",
		InsuranceType: "保険",
		BurdenRateRaw: "2",
		CarryOverRaw:  "1,000",
	}, 0)

	assert.Equal(t, 0, item.TreatmentAmount)
	assert.Equal(t, 0, item.TransportAmount)
	assert.Equal(t, 0, item.BillingAmount)
	assert.Equal(t, 1000, item.GrandTotal)
}

func TestCalculate_BurdenRateZeroBillsNothing(t *testing.T) {
	// 負担率0は標準単価経路でも請求額0。往療費だけ残る。
	c := testCalculator()
	item := c.Calculate("202504", model.PatientRecord{
		PatientID:     "P031",
		InsuranceType: "保険",
		BurdenRateRaw: "0",
	}, 3)

	assert.Equal(t, 4170, item.UnitPrice)
	assert.Equal(t, 12510, item.TreatmentAmount)
	assert.Equal(t, 0, item.BillingAmount)
	assert.Equal(t, 99, item.TransportAmount)
	assert.Equal(t, 99, item.GrandTotal)
}

func TestCalculate_Deterministic(t *testing.T) {
	c := testCalculator()
	p := model.PatientRecord{
		PatientID:     "P040",
		InsuranceType: "保険",
		BurdenRateRaw: "3割",
		CarryOverRaw:  "500",
	}
	first := c.Calculate("202504", p, 6)
	second := c.Calculate("202504", p, 6)
	assert.Equal(t, first, second)
}
