package parsers

import (
	"encoding/csv"
	"fmt"
	"io"

	"seikyu/model"
	"seikyu/normalize"
)

// ParseVisitCSV は月次訪問回数CSV(UTF-8、ヘッダーあり)を解析します。
// 回数は非負整数へ正規化します(不正値は0)。
func ParseVisitCSV(r io.Reader) ([]model.VisitCountRecord, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ヘッダー行の読み取りに失敗: %w", err)
	}
	colIndex, err := getColIndex(header, []string{"請求月", "患者番号", "訪問回数"})
	if err != nil {
		return nil, err
	}

	var records []model.VisitCountRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		month, err := normalize.CanonicalMonth(getCol(row, colIndex, "請求月"))
		if err != nil {
			// 月キーが壊れた行は取り込まない
			continue
		}
		patientID := getCol(row, colIndex, "患者番号")
		if patientID == "" {
			continue
		}

		records = append(records, model.VisitCountRecord{
			BillingMonth: month,
			PatientID:    patientID,
			VisitCount:   normalize.VisitCount(getCol(row, colIndex, "訪問回数")),
		})
	}
	return records, nil
}
