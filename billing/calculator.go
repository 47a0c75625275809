package billing

import (
	"seikyu/config"
	"seikyu/model"
	"seikyu/normalize"
)

// Calculator は1患者×1ヶ月の請求金額を計算します。
// 副作用なし。同じ入力は常に同じ明細を返します(再生成・テストの前提)。
type Calculator struct {
	StandardUnitPrice  int
	TransportUnitPrice int
	BurdenPriceTable   []int // [0]=1割, [1]=2割, [2]=3割 の患者負担単価
}

func NewCalculator(cfg config.Config) *Calculator {
	return &Calculator{
		StandardUnitPrice:  cfg.StandardUnitPrice,
		TransportUnitPrice: cfg.TransportUnitPrice,
		BurdenPriceTable:   cfg.BurdenPriceTable,
	}
}

// Calculate は患者マスタの生の属性と訪問回数から請求明細を作ります。
// 単価の優先順位:
//  1. マッサージのみ → 請求自体を抑止
//  2. 手入力単価(0 も意図的な上書きとして有効) → 総額単価として使用
//  3. 生活保護・医療助成 → 抑止(手入力がない場合)
//  4. 自費で手入力なし → 抑止(往療費も発生しない)
//  5. 1〜3割 → 負担割合別の患者負担単価(この場合 billing == treatment)
//  6. それ以外 → 標準総額単価に負担率を乗じて10円単位へ丸め
func (c *Calculator) Calculate(month string, p model.PatientRecord, rawVisits any) model.BillingLineItem {
	visits := normalize.VisitCount(rawVisits)
	ins := normalize.InsuranceType(p.InsuranceType)
	rate := normalize.BurdenRate(p.BurdenRateRaw)
	medical := normalize.MedicalAssistanceFlag(p.MedicalAssistanceRaw)
	carry := normalize.Money(p.CarryOverRaw)
	isSelfPay := ins == model.InsuranceSelfPay || rate == normalize.SelfPay

	var unitPrice int
	var gross bool // 総額単価(負担率を乗じる)か、患者負担単価そのものか
	var zeroCharge bool

	switch {
	case ins == model.InsuranceMassageOnly:
		zeroCharge = true
	case p.ManualUnitPrice != nil:
		unitPrice = *p.ManualUnitPrice
		gross = true
		if unitPrice == 0 {
			zeroCharge = true
		}
	case ins == model.InsuranceLifeAssistance || medical:
		zeroCharge = true
	case isSelfPay:
		zeroCharge = true
	case rate >= 1 && rate <= len(c.BurdenPriceTable):
		unitPrice = c.BurdenPriceTable[rate-1]
	default:
		// 負担率0(請求なし)や4割以上は標準総額単価×負担率の経路
		unitPrice = c.StandardUnitPrice
		gross = true
	}

	var treatment, transport int
	if visits > 0 && !zeroCharge {
		treatment = unitPrice * visits
		transport = c.TransportUnitPrice * visits
	}

	var billing int
	switch {
	case treatment == 0:
		billing = 0
	case isSelfPay:
		// 自費は負担率の概念なし。手入力単価をそのまま全額請求
		billing = treatment
	case gross:
		billing = normalize.RoundToNearestTen(float64(treatment) * float64(rate) / 10.0)
	default:
		// 患者負担単価は負担率を織り込み済み
		billing = treatment
	}

	item := model.BillingLineItem{
		BillingMonth:     month,
		PatientID:        p.PatientID,
		NameKanji:        p.NameKanji,
		NameKana:         p.NameKana,
		Address:          p.Address,
		InsuranceType:    ins,
		BurdenRate:       rate,
		VisitCount:       visits,
		UnitPrice:        unitPrice,
		TreatmentAmount:  treatment,
		TransportAmount:  transport,
		CarryOverPatient: carry,
		BillingAmount:    billing,
		Total:            treatment + transport,
		StaffID:          p.StaffID,
		StaffName:        p.StaffName,
		ReceiptMonths:    []string{month},
	}
	item.GrandTotal = item.BillingAmount + item.TransportAmount + item.CarryOver()
	return item
}
