package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"seikyu/model"
)

// GetPatientMap は全患者マスタを patientId で引けるマップで取得します。
func GetPatientMap(db *sqlx.DB) (map[string]model.PatientRecord, error) {
	patients, err := GetAllPatients(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient list for map: %w", err)
	}

	patientMap := make(map[string]model.PatientRecord)
	for _, p := range patients {
		patientMap[p.PatientID] = p
	}
	return patientMap, nil
}

func GetAllPatients(db *sqlx.DB) ([]model.PatientRecord, error) {
	var patients []model.PatientRecord
	err := db.Select(&patients, `
		SELECT patient_id, name_kanji, name_kana, address, insurance_type,
		       burden_rate_raw, manual_unit_price, medical_assistance_raw,
		       carry_over_raw, staff_id, staff_name,
		       bank_code, branch_code, account_number
		FROM patient_master ORDER BY patient_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all patients: %w", err)
	}
	return patients, nil
}

// UpsertPatientInTx は患者マスタにデータを挿入または置換します。
func UpsertPatientInTx(tx *sqlx.Tx, p model.PatientRecord) error {
	const q = `
		INSERT INTO patient_master (
			patient_id, name_kanji, name_kana, address, insurance_type,
			burden_rate_raw, manual_unit_price, medical_assistance_raw,
			carry_over_raw, staff_id, staff_name,
			bank_code, branch_code, account_number
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			name_kanji = excluded.name_kanji,
			name_kana = excluded.name_kana,
			address = excluded.address,
			insurance_type = excluded.insurance_type,
			burden_rate_raw = excluded.burden_rate_raw,
			manual_unit_price = excluded.manual_unit_price,
			medical_assistance_raw = excluded.medical_assistance_raw,
			carry_over_raw = excluded.carry_over_raw,
			staff_id = excluded.staff_id,
			staff_name = excluded.staff_name,
			bank_code = excluded.bank_code,
			branch_code = excluded.branch_code,
			account_number = excluded.account_number
	`
	_, err := tx.Exec(q,
		p.PatientID, p.NameKanji, p.NameKana, p.Address, p.InsuranceType,
		p.BurdenRateRaw, p.ManualUnitPrice, p.MedicalAssistanceRaw,
		p.CarryOverRaw, p.StaffID, p.StaffName,
		p.BankCode, p.BranchCode, p.AccountNumber)
	if err != nil {
		return fmt.Errorf("UpsertPatientInTx (ID: %s) failed: %w", p.PatientID, err)
	}
	return nil
}
