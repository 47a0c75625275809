package model

// InsuranceType の正規化済みコード
const (
	InsuranceRegular           = "regular"            // 通常(保険)
	InsuranceSelfPay           = "self-pay"           // 自費
	InsuranceMassageOnly       = "massage-only"       // マッサージのみ
	InsuranceLifeAssistance    = "life-assistance"    // 生活保護
	InsuranceMedicalAssistance = "medical-assistance" // 医療助成
)

// PatientRecord は患者マスタの1行です。
// burden_rate_raw / medical_assistance_raw はスプレッドシート由来の
// 生の値のまま保持し、請求計算の直前に normalize で正規化します。
type PatientRecord struct {
	PatientID            string `db:"patient_id" json:"patientId"`
	NameKanji            string `db:"name_kanji" json:"nameKanji"`
	NameKana             string `db:"name_kana" json:"nameKana"`
	Address              string `db:"address" json:"address"`
	InsuranceType        string `db:"insurance_type" json:"insuranceType"`
	BurdenRateRaw        string `db:"burden_rate_raw" json:"burdenRateRaw"`
	ManualUnitPrice      *int   `db:"manual_unit_price" json:"manualUnitPrice,omitempty"`
	MedicalAssistanceRaw string `db:"medical_assistance_raw" json:"medicalAssistanceRaw"`
	CarryOverRaw         string `db:"carry_over_raw" json:"carryOverRaw"`
	StaffID              string `db:"staff_id" json:"staffId"`
	StaffName            string `db:"staff_name" json:"staffName"`
	BankCode             string `db:"bank_code" json:"bankCode"`
	BranchCode           string `db:"branch_code" json:"branchCode"`
	AccountNumber        string `db:"account_number" json:"accountNumber"`
}

// VisitCountRecord は対象月(YYYYMM)ごとの訪問回数です。
type VisitCountRecord struct {
	BillingMonth string `db:"billing_month" json:"billingMonth"`
	PatientID    string `db:"patient_id" json:"patientId"`
	VisitCount   int    `db:"visit_count" json:"visitCount"`
}

// BankAccount は口座マスタの1行です。名義(空白除去済み)でも引けます。
type BankAccount struct {
	Name           string `db:"name" json:"name"`
	BankCode       string `db:"bank_code" json:"bankCode"`
	BranchCode     string `db:"branch_code" json:"branchCode"`
	AccountNumber  string `db:"account_number" json:"accountNumber"`
	NameKana       string `db:"name_kana" json:"nameKana"`
	RegulationCode string `db:"regulation_code" json:"regulationCode"`
	IsNew          int    `db:"is_new" json:"isNew"`
}

// BankStatusEntry は患者ごとの振替結果です。
type BankStatusEntry struct {
	PatientID  string `db:"patient_id" json:"patientId"`
	BankStatus string `db:"bank_status" json:"bankStatus"`
	PaidStatus string `db:"paid_status" json:"paidStatus"`
}
