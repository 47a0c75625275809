package model

// PayloadSchemaVersion は PreparedPayload の現行スキーマ版数です。
// 版数が一致しないペイロードは再計算対象になります。
const PayloadSchemaVersion = 3

// PreparedPayload は1ヶ月分の計算結果一式です。
// payload ストアがこのまま直列化して保存・復元します。
type PreparedPayload struct {
	SchemaVersion   int                        `json:"schemaVersion"`
	BillingMonth    string                     `json:"billingMonth"`
	BillingJSON     []BillingLineItem          `json:"billingJson"`
	CarryOverLedger map[string]int             `json:"carryOverLedger"` // patientId -> 繰越額
	BankStatusMap   map[string]BankStatusEntry `json:"bankStatusMap"`   // patientId -> 振替結果
}
