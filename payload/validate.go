package payload

import (
	"seikyu/model"
	"seikyu/normalize"
)

// ValidationResult は読み込んだペイロードの検証結果です。
// NG の場合は呼び出し側が再計算するか中断するかを reason で判断できます。
type ValidationResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Validate はペイロードのスキーマ版数と必須フィールドの有無を検証します。
// 汎用エラーではなく欠落箇所を特定した reason を返します。
func Validate(p *model.PreparedPayload) ValidationResult {
	if p == nil {
		return ValidationResult{Reason: "payload missing"}
	}
	if p.SchemaVersion != model.PayloadSchemaVersion {
		return ValidationResult{Reason: "schemaVersion mismatch"}
	}
	if err := normalize.ValidateMonth(p.BillingMonth); err != nil {
		return ValidationResult{Reason: "billingMonth missing"}
	}
	if p.BillingJSON == nil {
		return ValidationResult{Reason: "billingJson missing"}
	}
	if p.CarryOverLedger == nil {
		return ValidationResult{Reason: "carryOverLedger missing"}
	}
	if p.BankStatusMap == nil {
		return ValidationResult{Reason: "bankStatusMap missing"}
	}
	return ValidationResult{OK: true}
}
