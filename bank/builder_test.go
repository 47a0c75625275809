package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seikyu/model"
)

func TestBuildTransferRows_AccountNumberPaddedBankBranchExact(t *testing.T) {
	// ゼロ埋めするのは口座番号だけ。銀行・支店コードは桁ちょうどを要求する
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎", NameKana: "ヤマダ タロウ", GrandTotal: 4600},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "0005", BranchCode: "012", AccountNumber: "34567"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 0, summary.Skipped)
	if assert.Len(t, summary.Rows, 1) {
		row := summary.Rows[0]
		assert.Equal(t, "0005", row.BankCode)
		assert.Equal(t, "012", row.BranchCode)
		assert.Equal(t, "0034567", row.AccountNumber)
		assert.Equal(t, "1", row.RegulationCode) // 既定値
		assert.Equal(t, "ヤマダ タロウ", row.NameKana)
	}
}

func TestBuildTransferRows_ShortBankCodeIsInvalid(t *testing.T) {
	// 3桁の銀行コードをゼロ埋めで通してはいけない
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "123", BranchCode: "001", AccountNumber: "1234567"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 0, summary.Passed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SkipReasons.InvalidBankCode)
	assert.Equal(t, 0, summary.SkipReasons.InvalidBranchCode)
	assert.Equal(t, 0, summary.SkipReasons.InvalidAccountNumber)
	assert.Empty(t, summary.Rows)
}

func TestBuildTransferRows_ShortBranchCodeIsInvalid(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "0005", BranchCode: "12", AccountNumber: "1234567"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.SkipReasons.InvalidBranchCode)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Rows)
}

func TestBuildTransferRows_EmptyCodeIsNeverPaddedToValid(t *testing.T) {
	// 空のコードをゼロ埋めで「有効」にしてはいけない
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "", BranchCode: "001", AccountNumber: "1234567"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 0, summary.Passed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SkipReasons.InvalidBankCode)
	assert.Equal(t, 0, summary.SkipReasons.InvalidBranchCode)
	assert.Empty(t, summary.Rows)
}

func TestBuildTransferRows_OverlongCodeIsInvalid(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "12345", BranchCode: "001", AccountNumber: "1234567"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.SkipReasons.InvalidBankCode)
	assert.Equal(t, 1, summary.Skipped)
}

func TestBuildTransferRows_MultipleReasonsCountedButSkippedOnce(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001"}, // 口座情報なし
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.SkipReasons.InvalidBankCode)
	assert.Equal(t, 1, summary.SkipReasons.InvalidBranchCode)
	assert.Equal(t, 1, summary.SkipReasons.InvalidAccountNumber)
	assert.Equal(t, 1, summary.Skipped)
}

func TestBuildTransferRows_AccountMasterTakesPriority(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田　太郎", NameKana: "ヤマダ タロウ"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "9999", BranchCode: "999", AccountNumber: "9999999"},
	}
	// 名義は全角空白込みでも照合される
	accounts := map[string]model.BankAccount{
		"山田太郎": {
			Name:           "山田 太郎",
			BankCode:       "0001",
			BranchCode:     "002",
			AccountNumber:  "1234567",
			NameKana:       "ヤマダ　タロウ",
			RegulationCode: "2",
			IsNew:          1,
		},
	}

	summary := BuildTransferRows(items, accounts, patients, nil)

	if assert.Len(t, summary.Rows, 1) {
		row := summary.Rows[0]
		assert.Equal(t, "0001", row.BankCode)
		assert.Equal(t, "002", row.BranchCode)
		assert.Equal(t, "1234567", row.AccountNumber)
		assert.Equal(t, "ヤマダ　タロウ", row.NameKana)
		assert.Equal(t, "2", row.RegulationCode)
		assert.Equal(t, 1, row.IsNew)
	}
}

func TestBuildTransferRows_AccountMasterGapsFallBackToPatient(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎", NameKana: "ヤマダ タロウ"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "0005", BranchCode: "012", AccountNumber: "0034567"},
	}
	accounts := map[string]model.BankAccount{
		"山田太郎": {Name: "山田 太郎", BankCode: "0001"}, // 支店・口座は未登録
	}

	summary := BuildTransferRows(items, accounts, patients, nil)

	if assert.Len(t, summary.Rows, 1) {
		row := summary.Rows[0]
		assert.Equal(t, "0001", row.BankCode)
		assert.Equal(t, "012", row.BranchCode)
		assert.Equal(t, "0034567", row.AccountNumber)
	}
}

func TestBuildTransferRows_SkipInvoiceRowsExcludedFromTotal(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202503", PatientID: "P001", NameKanji: "山田 太郎", SkipInvoice: true},
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "0005", BranchCode: "012", AccountNumber: "0034567"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Passed)
}

func TestBuildTransferRows_FullWidthCodesAreFolded(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "０００５", BranchCode: "０１２", AccountNumber: "１２３-４５６７"},
	}

	summary := BuildTransferRows(items, nil, patients, nil)

	if assert.Len(t, summary.Rows, 1) {
		row := summary.Rows[0]
		assert.Equal(t, "0005", row.BankCode)
		assert.Equal(t, "012", row.BranchCode)
		assert.Equal(t, "1234567", row.AccountNumber)
	}
}

func TestBuildTransferRows_PaidStatusAttached(t *testing.T) {
	items := []model.BillingLineItem{
		{BillingMonth: "202504", PatientID: "P001", NameKanji: "山田 太郎"},
	}
	patients := map[string]model.PatientRecord{
		"P001": {PatientID: "P001", BankCode: "0005", BranchCode: "012", AccountNumber: "0034567"},
	}
	statuses := map[string]model.BankStatusEntry{
		"P001": {PatientID: "P001", BankStatus: "OK", PaidStatus: "入金済"},
	}

	summary := BuildTransferRows(items, nil, patients, statuses)

	if assert.Len(t, summary.Rows, 1) {
		assert.Equal(t, "入金済", summary.Rows[0].PaidStatus)
	}
}
