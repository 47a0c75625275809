package database

import (
	"github.com/jmoiron/sqlx"

	"seikyu/model"
)

// BillingStore は aggregation のポート(FlagSource / LineSource / LineMarker)を
// billing_records / aggregate_flags テーブルで実装します。
type BillingStore struct {
	DB *sqlx.DB
}

func NewBillingStore(db *sqlx.DB) *BillingStore {
	return &BillingStore{DB: db}
}

func (s *BillingStore) IsAggregate(month, patientID string) (bool, error) {
	return IsAggregateFlagged(s.DB, month, patientID)
}

func (s *BillingStore) GetBillingLine(month, patientID string) (*model.BillingLineItem, error) {
	return GetBillingLine(s.DB, month, patientID)
}

func (s *BillingStore) MarkSkipInvoice(month, patientID string) error {
	return MarkSkipInvoice(s.DB, month, patientID)
}
