package aggregation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"seikyu/model"
)

type fakeStore struct {
	flags  map[string]bool
	lines  map[string]*model.BillingLineItem
	marked []string

	flagErr error
	lineErr error
}

func key(month, patientID string) string { return month + "/" + patientID }

func (f *fakeStore) IsAggregate(month, patientID string) (bool, error) {
	if f.flagErr != nil {
		return false, f.flagErr
	}
	return f.flags[key(month, patientID)], nil
}

func (f *fakeStore) GetBillingLine(month, patientID string) (*model.BillingLineItem, error) {
	if f.lineErr != nil {
		return nil, f.lineErr
	}
	return f.lines[key(month, patientID)], nil
}

func (f *fakeStore) MarkSkipInvoice(month, patientID string) error {
	f.marked = append(f.marked, key(month, patientID))
	return nil
}

func newTestResolver(store *fakeStore, maxMonths int) *Resolver {
	return NewResolver(store, store, store, maxMonths)
}

func TestResolvePatient_NoFlagLeavesItemUnchanged(t *testing.T) {
	store := &fakeStore{flags: map[string]bool{}, lines: map[string]*model.BillingLineItem{}}
	r := newTestResolver(store, 12)

	item := model.BillingLineItem{
		BillingMonth:  "202504",
		PatientID:     "P001",
		BillingAmount: 2000,
		GrandTotal:    2000,
		ReceiptMonths: []string{"202504"},
	}
	got := r.ResolvePatient(item)

	assert.Equal(t, item, got)
	assert.Empty(t, store.marked)
}

func TestResolvePatient_TwoMonthChain(t *testing.T) {
	store := &fakeStore{
		flags: map[string]bool{key("202503", "P001"): true},
		lines: map[string]*model.BillingLineItem{
			key("202503", "P001"): {
				BillingMonth:  "202503",
				PatientID:     "P001",
				BillingAmount: 1000,
				GrandTotal:    1000,
				ReceiptMonths: []string{"202503"},
			},
		},
	}
	r := newTestResolver(store, 12)

	got := r.ResolvePatient(model.BillingLineItem{
		BillingMonth:  "202504",
		PatientID:     "P001",
		BillingAmount: 2000,
		GrandTotal:    2000,
		ReceiptMonths: []string{"202504"},
	})

	assert.Equal(t, 1000, got.CarryOverHistory)
	assert.Equal(t, 3000, got.GrandTotal)
	assert.Equal(t, []string{"202503", "202504"}, got.ReceiptMonths)
	assert.Equal(t, model.AggregateConfirmed, got.AggregateStatus)
	assert.Contains(t, got.Remark, "合算請求")
	assert.Equal(t, []string{key("202503", "P001")}, store.marked)
}

func TestResolvePatient_PriorConfirmedAggregateAbsorbedWhole(t *testing.T) {
	// 前月自体が合算済みなら、その領収月ごと取り込み、歩みは
	// その合算の先頭月の前へ飛ぶ。
	store := &fakeStore{
		flags: map[string]bool{
			key("202502", "P001"): true,
			// 202501は合算に含まれているが、個別のフラグ参照は起きない
			key("202412", "P001"): false,
		},
		lines: map[string]*model.BillingLineItem{
			key("202502", "P001"): {
				BillingMonth:     "202502",
				PatientID:        "P001",
				BillingAmount:    2000,
				CarryOverHistory: 3000,
				GrandTotal:       5000,
				ReceiptMonths:    []string{"202501", "202502"},
				AggregateStatus:  model.AggregateConfirmed,
			},
		},
	}
	r := newTestResolver(store, 12)

	got := r.ResolvePatient(model.BillingLineItem{
		BillingMonth:  "202503",
		PatientID:     "P001",
		BillingAmount: 1500,
		GrandTotal:    1500,
		ReceiptMonths: []string{"202503"},
	})

	assert.Equal(t, 5000, got.CarryOverHistory)
	assert.Equal(t, 6500, got.GrandTotal)
	assert.Equal(t, []string{"202501", "202502", "202503"}, got.ReceiptMonths)
}

func TestResolvePatient_SkippedLineRestoresComponents(t *testing.T) {
	// スキップ済み(GrandTotal=0)の月は構成額から単独時の金額を復元する
	store := &fakeStore{
		flags: map[string]bool{key("202503", "P001"): true},
		lines: map[string]*model.BillingLineItem{
			key("202503", "P001"): {
				BillingMonth:     "202503",
				PatientID:        "P001",
				BillingAmount:    800,
				TransportAmount:  100,
				CarryOverPatient: 100,
				GrandTotal:       0,
				SkipInvoice:      true,
				ReceiptMonths:    []string{"202503"},
			},
		},
	}
	r := newTestResolver(store, 12)

	got := r.ResolvePatient(model.BillingLineItem{
		BillingMonth:  "202504",
		PatientID:     "P001",
		BillingAmount: 2000,
		GrandTotal:    2000,
		ReceiptMonths: []string{"202504"},
	})

	assert.Equal(t, 1000, got.CarryOverHistory)
	assert.Equal(t, 3000, got.GrandTotal)
}

func TestResolvePatient_ChainCappedByMaxMonths(t *testing.T) {
	// 過去は全てフラグあり・明細ありだが、3ヶ月で打ち切る
	store := &fakeStore{flags: map[string]bool{}, lines: map[string]*model.BillingLineItem{}}
	m := "202503"
	for i := 0; i < 24; i++ {
		store.flags[key(m, "P001")] = true
		store.lines[key(m, "P001")] = &model.BillingLineItem{
			BillingMonth:  m,
			PatientID:     "P001",
			GrandTotal:    100,
			ReceiptMonths: []string{m},
		}
		m = prevMonthForTest(m)
	}
	r := newTestResolver(store, 3)

	got := r.ResolvePatient(model.BillingLineItem{
		BillingMonth:  "202504",
		PatientID:     "P001",
		BillingAmount: 500,
		GrandTotal:    500,
		ReceiptMonths: []string{"202504"},
	})

	assert.Len(t, got.ReceiptMonths, 3)
	assert.Equal(t, 200, got.CarryOverHistory)
	assert.Equal(t, 700, got.GrandTotal)
}

func prevMonthForTest(month string) string {
	var year, mm int
	fmt.Sscanf(month, "%4d%2d", &year, &mm)
	mm--
	if mm == 0 {
		year--
		mm = 12
	}
	return fmt.Sprintf("%d%02d", year, mm)
}

func TestResolvePatient_LookupErrorFailsSafeToStandalone(t *testing.T) {
	store := &fakeStore{
		flags:   map[string]bool{key("202503", "P001"): true},
		lines:   map[string]*model.BillingLineItem{},
		flagErr: errors.New("db locked"),
	}
	r := newTestResolver(store, 12)

	item := model.BillingLineItem{
		BillingMonth:  "202504",
		PatientID:     "P001",
		BillingAmount: 2000,
		GrandTotal:    2000,
		ReceiptMonths: []string{"202504"},
	}
	got := r.ResolvePatient(item)

	assert.Equal(t, item, got)
	assert.Empty(t, store.marked)
}

func TestResolvePatient_FlaggedButNoLineStopsWalk(t *testing.T) {
	store := &fakeStore{
		flags: map[string]bool{key("202503", "P001"): true},
		lines: map[string]*model.BillingLineItem{},
	}
	r := newTestResolver(store, 12)

	item := model.BillingLineItem{
		BillingMonth:  "202504",
		PatientID:     "P001",
		BillingAmount: 2000,
		GrandTotal:    2000,
		ReceiptMonths: []string{"202504"},
	}
	got := r.ResolvePatient(item)

	assert.Equal(t, item, got)
}

func TestResolveAll_PatientsIndependent(t *testing.T) {
	store := &fakeStore{
		flags: map[string]bool{key("202503", "P001"): true},
		lines: map[string]*model.BillingLineItem{
			key("202503", "P001"): {
				BillingMonth:  "202503",
				PatientID:     "P001",
				GrandTotal:    1000,
				ReceiptMonths: []string{"202503"},
			},
		},
	}
	r := newTestResolver(store, 12)

	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", BillingAmount: 2000, GrandTotal: 2000, ReceiptMonths: []string{"202504"}},
		{BillingMonth: "202504", PatientID: "P002", BillingAmount: 3000, GrandTotal: 3000, ReceiptMonths: []string{"202504"}},
	}
	got := r.ResolveAll(items)

	assert.Len(t, got, 2)
	assert.Equal(t, model.AggregateConfirmed, got[0].AggregateStatus)
	assert.Equal(t, 3000, got[0].GrandTotal)
	assert.Equal(t, "", got[1].AggregateStatus)
	assert.Equal(t, 3000, got[1].GrandTotal)
}
