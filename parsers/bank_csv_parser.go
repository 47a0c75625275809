package parsers

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"seikyu/model"
	"seikyu/normalize"
)

// ParseBankAccountCSV は口座マスタCSV(UTF-8、ヘッダーあり)を解析します。
func ParseBankAccountCSV(r io.Reader) ([]model.BankAccount, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の読み取りに失敗: %w", err)
	}
	colIndex, err := getColIndex(header, []string{"名義", "銀行コード", "支店コード", "口座番号"})
	if err != nil {
		return nil, err
	}

	var records []model.BankAccount
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		name := getCol(row, colIndex, "名義")
		if name == "" {
			continue
		}

		isNew := 0
		if normalize.MedicalAssistanceFlag(getCol(row, colIndex, "新規")) {
			isNew = 1
		}

		records = append(records, model.BankAccount{
			Name:           name,
			BankCode:       getCol(row, colIndex, "銀行コード"),
			BranchCode:     getCol(row, colIndex, "支店コード"),
			AccountNumber:  getCol(row, colIndex, "口座番号"),
			NameKana:       getCol(row, colIndex, "カナ"),
			RegulationCode: getCol(row, colIndex, "規定コード"),
			IsNew:          isNew,
		})
	}
	return records, nil
}

// DebitResultRecord は銀行の振替結果CSVの1行です。
type DebitResultRecord struct {
	PatientID  string
	BankStatus string
	PaidStatus string
}

// ParseDebitResultCSV は銀行ポータルから取得した振替結果CSV
// (Shift_JIS、ヘッダーあり)を解析します。
func ParseDebitResultCSV(r io.Reader) ([]DebitResultRecord, error) {
	decoder := japanese.ShiftJIS.NewDecoder()
	reader := csv.NewReader(transform.NewReader(r, decoder))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の読み取りに失敗: %w", err)
	}
	colIndex, err := getColIndex(header, []string{"顧客番号", "振替結果"})
	if err != nil {
		return nil, err
	}

	var records []DebitResultRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		patientID := getCol(row, colIndex, "顧客番号")
		if patientID == "" {
			continue
		}

		records = append(records, DebitResultRecord{
			PatientID:  patientID,
			BankStatus: getCol(row, colIndex, "振替結果"),
			PaidStatus: getCol(row, colIndex, "入金状態"),
		})
	}
	return records, nil
}
