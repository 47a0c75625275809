package model

// BankTransferRow は口座振替エクスポートの1行です。
// コードは桁数確定済み(銀行4桁・支店3桁は桁ちょうど、口座7桁は
// ゼロ埋め)の状態でのみ生成されます。
type BankTransferRow struct {
	BillingMonth   string `json:"billingMonth"`
	PatientID      string `json:"patientId"`
	NameKanji      string `json:"nameKanji"`
	BankCode       string `json:"bankCode"`
	BranchCode     string `json:"branchCode"`
	RegulationCode string `json:"regulationCode"` // 未設定時は "1"
	AccountNumber  string `json:"accountNumber"`
	NameKana       string `json:"nameKana"`
	IsNew          int    `json:"isNew"` // 0/1
	PaidStatus     string `json:"paidStatus"`
}

// BankSkipReasons は除外理由ごとの件数です。1行が複数の理由に
// 数えられることはありますが、Skipped には1回しか寄与しません。
type BankSkipReasons struct {
	InvalidBankCode      int `json:"invalidBankCode"`
	InvalidBranchCode    int `json:"invalidBranchCode"`
	InvalidAccountNumber int `json:"invalidAccountNumber"`
}

// BankExportSummary は振替行の生成結果です。SkipReasons は必ず
// オペレーター向けレポートに出します(黙って落とすのは欠陥)。
type BankExportSummary struct {
	Rows        []BankTransferRow `json:"rows"`
	Total       int               `json:"total"`
	Passed      int               `json:"passed"`
	Skipped     int               `json:"skipped"`
	SkipReasons BankSkipReasons   `json:"skipReasons"`
}
