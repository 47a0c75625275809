package model

// AggregateStatus の値
const (
	AggregateConfirmed = "confirmed" // 合算確定(チェーン末尾)
)

// BillingLineItem は患者×月の請求明細1件です。
// ChargeCalculator が生成し、合算解決(aggregation)が
// ReceiptMonths / SkipInvoice / AggregateStatus を確定させます。
type BillingLineItem struct {
	BillingMonth     string   `json:"billingMonth"`
	PatientID        string   `json:"patientId"`
	NameKanji        string   `json:"nameKanji"`
	NameKana         string   `json:"nameKana"`
	Address          string   `json:"address"`
	InsuranceType    string   `json:"insuranceType"`
	BurdenRate       int      `json:"burdenRate"` // 1..10、自費は normalize.SelfPay(-1)
	VisitCount       int      `json:"visitCount"`
	UnitPrice        int      `json:"unitPrice"` // 実際に適用した単価
	TreatmentAmount  int      `json:"treatmentAmount"`
	TransportAmount  int      `json:"transportAmount"`
	CarryOverPatient int      `json:"carryOverFromPatient"` // 患者マスタ由来の繰越
	CarryOverHistory int      `json:"carryOverFromHistory"` // 過去未納履歴由来の繰越
	BillingAmount    int      `json:"billingAmount"`
	Total            int      `json:"total"`      // treatment + transport
	GrandTotal       int      `json:"grandTotal"` // billing + transport + carryOver
	StaffID          string   `json:"staffId"`
	StaffName        string   `json:"staffName"`
	BankStatus       string   `json:"bankStatus"`
	PaidStatus       string   `json:"paidStatus"`
	ReceiptMonths    []string `json:"receiptMonths"` // このインボイスに畳み込んだ月(昇順)
	SkipInvoice      bool     `json:"skipInvoice"`
	AggregateStatus  string   `json:"aggregateStatus,omitempty"`
	Remark           string   `json:"remark,omitempty"`
}

// CarryOver は患者由来と履歴由来の合計です。
func (b *BillingLineItem) CarryOver() int {
	return b.CarryOverPatient + b.CarryOverHistory
}
