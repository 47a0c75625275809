package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"seikyu/model"
)

// GetBankAccountMap は口座マスタを空白除去済みの名義で引けるマップで取得します。
func GetBankAccountMap(db *sqlx.DB) (map[string]model.BankAccount, error) {
	var accounts []model.BankAccount
	err := db.Select(&accounts, `
		SELECT name, bank_code, branch_code, account_number,
		       name_kana, regulation_code, is_new
		FROM bank_accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank accounts: %w", err)
	}

	nameReplacer := strings.NewReplacer(" ", "", "　", "", "\t", "")
	accountMap := make(map[string]model.BankAccount)
	for _, a := range accounts {
		accountMap[nameReplacer.Replace(strings.TrimSpace(a.Name))] = a
	}
	return accountMap, nil
}

// UpsertBankAccountInTx は口座マスタにデータを挿入または置換します。
func UpsertBankAccountInTx(tx *sqlx.Tx, a model.BankAccount) error {
	const q = `
		INSERT INTO bank_accounts (
			name, bank_code, branch_code, account_number,
			name_kana, regulation_code, is_new
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			bank_code = excluded.bank_code,
			branch_code = excluded.branch_code,
			account_number = excluded.account_number,
			name_kana = excluded.name_kana,
			regulation_code = excluded.regulation_code,
			is_new = excluded.is_new
	`
	_, err := tx.Exec(q, a.Name, a.BankCode, a.BranchCode, a.AccountNumber,
		a.NameKana, a.RegulationCode, a.IsNew)
	if err != nil {
		return fmt.Errorf("UpsertBankAccountInTx (Name: %s) failed: %w", a.Name, err)
	}
	return nil
}

// GetBankStatusMap は患者ごとの振替結果を取得します。
func GetBankStatusMap(db *sqlx.DB) (map[string]model.BankStatusEntry, error) {
	var entries []model.BankStatusEntry
	err := db.Select(&entries, `
		SELECT patient_id, bank_status, paid_status FROM bank_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank statuses: %w", err)
	}

	statusMap := make(map[string]model.BankStatusEntry)
	for _, e := range entries {
		statusMap[e.PatientID] = e
	}
	return statusMap, nil
}

// UpsertBankStatusInTx は振替結果を挿入または置換します。
func UpsertBankStatusInTx(tx *sqlx.Tx, e model.BankStatusEntry) error {
	const q = `
		INSERT INTO bank_status (patient_id, bank_status, paid_status)
		VALUES (?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			bank_status = excluded.bank_status,
			paid_status = excluded.paid_status
	`
	_, err := tx.Exec(q, e.PatientID, e.BankStatus, e.PaidStatus)
	if err != nil {
		return fmt.Errorf("UpsertBankStatusInTx (ID: %s) failed: %w", e.PatientID, err)
	}
	return nil
}
