package bank

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seikyu/model"
)

func sampleRow() model.BankTransferRow {
	return model.BankTransferRow{
		BillingMonth:   "202504",
		PatientID:      "P001",
		NameKanji:      "山田 太郎",
		BankCode:       "0005",
		BranchCode:     "012",
		RegulationCode: "1",
		AccountNumber:  "0034567",
		NameKana:       "ﾔﾏﾀﾞ ﾀﾛｳ",
	}
}

func TestGenerateZenginData_RecordLayout(t *testing.T) {
	debitDate := time.Date(2025, 4, 27, 0, 0, 0, 0, time.Local)
	data, err := GenerateZenginData("1234567890", "ｾｲｷｭｳｸﾘﾆﾂｸ", debitDate,
		[]model.BankTransferRow{sampleRow()}, map[string]int{"P001": 4600})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSuffix(data, []byte("\r\n")), []byte("\r\n"))
	require.Len(t, lines, 4) // ヘッダー + データ + トレーラー + エンド

	for i, line := range lines {
		assert.Len(t, line, 120, "record %d must be 120 bytes", i)
	}

	header := lines[0]
	assert.Equal(t, byte('1'), header[0])
	assert.Equal(t, "91", string(header[1:3]))
	assert.Equal(t, "1234567890", string(header[4:14]))
	assert.Equal(t, "0427", string(header[54:58]))

	record := lines[1]
	assert.Equal(t, byte('2'), record[0])
	assert.Equal(t, "0005", string(record[1:5]))
	assert.Equal(t, "012", string(record[5:8]))
	assert.Equal(t, "1", string(record[12:13]))
	assert.Equal(t, "0034567", string(record[13:20]))
	assert.Equal(t, "0000004600", string(record[50:60]))

	trailer := lines[2]
	assert.Equal(t, byte('8'), trailer[0])
	assert.Equal(t, "000001", string(trailer[1:7]))
	assert.Equal(t, "000000004600", string(trailer[7:19]))

	assert.Equal(t, byte('9'), lines[3][0])
}

func TestGenerateZenginData_TotalsAcrossRows(t *testing.T) {
	second := sampleRow()
	second.PatientID = "P002"
	data, err := GenerateZenginData("1234567890", "ｾｲｷｭｳｸﾘﾆﾂｸ", time.Now(),
		[]model.BankTransferRow{sampleRow(), second},
		map[string]int{"P001": 1000, "P002": 2500})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSuffix(data, []byte("\r\n")), []byte("\r\n"))
	require.Len(t, lines, 5)

	trailer := lines[3]
	assert.Equal(t, "000002", string(trailer[1:7]))
	assert.Equal(t, "000000003500", string(trailer[7:19]))
}

func TestGenerateZenginData_RequiresCommitterCode(t *testing.T) {
	_, err := GenerateZenginData("", "ｾｲｷｭｳｸﾘﾆﾂｸ", time.Now(),
		[]model.BankTransferRow{sampleRow()}, nil)
	assert.Error(t, err)
}

func TestGenerateZenginData_RequiresRows(t *testing.T) {
	_, err := GenerateZenginData("1234567890", "ｾｲｷｭｳｸﾘﾆﾂｸ", time.Now(), nil, nil)
	assert.Error(t, err)
}
