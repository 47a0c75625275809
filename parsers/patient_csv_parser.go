package parsers

import (
	"encoding/csv"
	"fmt"
	"io"

	"seikyu/model"
	"seikyu/normalize"
)

// ParsePatientCSV は患者マスタCSV(UTF-8、ヘッダーあり)を解析します。
// 負担割合・医療助成・繰越額はこの段階では生の文字列のまま保持します
// (正規化は請求計算の直前に行う)。
func ParsePatientCSV(r io.Reader) ([]model.PatientRecord, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の読み取りに失敗: %w", err)
	}
	colIndex, err := getColIndex(header, []string{"患者番号", "氏名"})
	if err != nil {
		return nil, err
	}

	var records []model.PatientRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // エラー行はスキップ
		}

		patientID := getCol(row, colIndex, "患者番号")
		if patientID == "" {
			continue
		}

		rec := model.PatientRecord{
			PatientID:            patientID,
			NameKanji:            getCol(row, colIndex, "氏名"),
			NameKana:             getCol(row, colIndex, "カナ"),
			Address:              getCol(row, colIndex, "住所"),
			InsuranceType:        getCol(row, colIndex, "保険種別"),
			BurdenRateRaw:        getCol(row, colIndex, "負担割合"),
			MedicalAssistanceRaw: getCol(row, colIndex, "医療助成"),
			CarryOverRaw:         getCol(row, colIndex, "繰越額"),
			StaffID:              getCol(row, colIndex, "担当者番号"),
			StaffName:            getCol(row, colIndex, "担当者名"),
			BankCode:             getCol(row, colIndex, "銀行コード"),
			BranchCode:           getCol(row, colIndex, "支店コード"),
			AccountNumber:        getCol(row, colIndex, "口座番号"),
		}

		// 手入力単価は空欄と明示的な0を区別する(0は意図的な無償上書き)
		if raw := getCol(row, colIndex, "手入力単価"); raw != "" {
			price := normalize.Money(raw)
			rec.ManualUnitPrice = &price
		}

		records = append(records, rec)
	}
	return records, nil
}
