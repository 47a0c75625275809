package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// IsAggregateFlagged は対象月×患者の「合算対象(未納)」フラグを返します。
// 記録がない月はフラグなしです。
func IsAggregateFlagged(db *sqlx.DB, month, patientID string) (bool, error) {
	var flag int
	const q = `SELECT flag FROM aggregate_flags WHERE billing_month = ? AND patient_id = ?`
	err := db.QueryRow(q, month, patientID).Scan(&flag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("IsAggregateFlagged (%s/%s) failed: %w", month, patientID, err)
	}
	return flag != 0, nil
}

// GetAggregateFlagMap は対象月のフラグ一覧を取得します。
func GetAggregateFlagMap(db *sqlx.DB, month string) (map[string]bool, error) {
	rows, err := db.Queryx(`SELECT patient_id, flag FROM aggregate_flags WHERE billing_month = ?`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate flags for %s: %w", month, err)
	}
	defer rows.Close()

	flagMap := make(map[string]bool)
	for rows.Next() {
		var patientID string
		var flag int
		if err := rows.Scan(&patientID, &flag); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate flag row: %w", err)
		}
		flagMap[patientID] = flag != 0
	}
	return flagMap, rows.Err()
}

// SetAggregateFlagInTx はフラグを設定(または解除)します。
// オペレーターのチェック操作と振替結果NGの取込の両方から呼ばれます。
func SetAggregateFlagInTx(tx *sqlx.Tx, month, patientID string, flagged bool) error {
	flag := 0
	if flagged {
		flag = 1
	}
	const q = `
		INSERT INTO aggregate_flags (billing_month, patient_id, flag)
		VALUES (?, ?, ?)
		ON CONFLICT(billing_month, patient_id) DO UPDATE SET
			flag = excluded.flag
	`
	_, err := tx.Exec(q, month, patientID, flag)
	if err != nil {
		return fmt.Errorf("SetAggregateFlagInTx (%s/%s) failed: %w", month, patientID, err)
	}
	return nil
}
