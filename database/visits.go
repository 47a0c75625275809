package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"seikyu/model"
)

// GetVisitCountMap は対象月の訪問回数を patientId で引けるマップで取得します。
// 記録のない患者は「当月請求なし」としてゼロ扱いになります。
func GetVisitCountMap(db *sqlx.DB, month string) (map[string]int, error) {
	var records []model.VisitCountRecord
	err := db.Select(&records, `
		SELECT billing_month, patient_id, visit_count
		FROM visit_counts WHERE billing_month = ?`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit counts for %s: %w", month, err)
	}

	visitMap := make(map[string]int)
	for _, r := range records {
		visitMap[r.PatientID] = r.VisitCount
	}
	return visitMap, nil
}

// UpsertVisitCountInTx は訪問回数を挿入または置換します。
func UpsertVisitCountInTx(tx *sqlx.Tx, rec model.VisitCountRecord) error {
	const q = `
		INSERT INTO visit_counts (billing_month, patient_id, visit_count)
		VALUES (?, ?, ?)
		ON CONFLICT(billing_month, patient_id) DO UPDATE SET
			visit_count = excluded.visit_count
	`
	_, err := tx.Exec(q, rec.BillingMonth, rec.PatientID, rec.VisitCount)
	if err != nil {
		return fmt.Errorf("UpsertVisitCountInTx (%s/%s) failed: %w", rec.BillingMonth, rec.PatientID, err)
	}
	return nil
}
