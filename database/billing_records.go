package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"seikyu/model"
)

// billingLineRow は billing_records テーブルの行です。
// receipt_months はJSON文字列として保持します。
type billingLineRow struct {
	BillingMonth      string `db:"billing_month"`
	PatientID         string `db:"patient_id"`
	NameKanji         string `db:"name_kanji"`
	NameKana          string `db:"name_kana"`
	Address           string `db:"address"`
	InsuranceType     string `db:"insurance_type"`
	BurdenRate        int    `db:"burden_rate"`
	VisitCount        int    `db:"visit_count"`
	UnitPrice         int    `db:"unit_price"`
	TreatmentAmount   int    `db:"treatment_amount"`
	TransportAmount   int    `db:"transport_amount"`
	CarryOverPatient  int    `db:"carry_over_patient"`
	CarryOverHistory  int    `db:"carry_over_history"`
	BillingAmount     int    `db:"billing_amount"`
	Total             int    `db:"total"`
	GrandTotal        int    `db:"grand_total"`
	StaffID           string `db:"staff_id"`
	StaffName         string `db:"staff_name"`
	BankStatus        string `db:"bank_status"`
	PaidStatus        string `db:"paid_status"`
	ReceiptMonthsJSON string `db:"receipt_months"`
	SkipInvoice       int    `db:"skip_invoice"`
	AggregateStatus   string `db:"aggregate_status"`
	Remark            string `db:"remark"`
}

func toRow(item model.BillingLineItem) billingLineRow {
	months, err := json.Marshal(item.ReceiptMonths)
	if err != nil {
		months = []byte("[]")
	}
	skip := 0
	if item.SkipInvoice {
		skip = 1
	}
	return billingLineRow{
		BillingMonth:      item.BillingMonth,
		PatientID:         item.PatientID,
		NameKanji:         item.NameKanji,
		NameKana:          item.NameKana,
		Address:           item.Address,
		InsuranceType:     item.InsuranceType,
		BurdenRate:        item.BurdenRate,
		VisitCount:        item.VisitCount,
		UnitPrice:         item.UnitPrice,
		TreatmentAmount:   item.TreatmentAmount,
		TransportAmount:   item.TransportAmount,
		CarryOverPatient:  item.CarryOverPatient,
		CarryOverHistory:  item.CarryOverHistory,
		BillingAmount:     item.BillingAmount,
		Total:             item.Total,
		GrandTotal:        item.GrandTotal,
		StaffID:           item.StaffID,
		StaffName:         item.StaffName,
		BankStatus:        item.BankStatus,
		PaidStatus:        item.PaidStatus,
		ReceiptMonthsJSON: string(months),
		SkipInvoice:       skip,
		AggregateStatus:   item.AggregateStatus,
		Remark:            item.Remark,
	}
}

func fromRow(row billingLineRow) model.BillingLineItem {
	var months []string
	if err := json.Unmarshal([]byte(row.ReceiptMonthsJSON), &months); err != nil {
		log.Printf("WARN: broken receipt_months for %s/%s: %v", row.BillingMonth, row.PatientID, err)
		months = []string{row.BillingMonth}
	}
	return model.BillingLineItem{
		BillingMonth:     row.BillingMonth,
		PatientID:        row.PatientID,
		NameKanji:        row.NameKanji,
		NameKana:         row.NameKana,
		Address:          row.Address,
		InsuranceType:    row.InsuranceType,
		BurdenRate:       row.BurdenRate,
		VisitCount:       row.VisitCount,
		UnitPrice:        row.UnitPrice,
		TreatmentAmount:  row.TreatmentAmount,
		TransportAmount:  row.TransportAmount,
		CarryOverPatient: row.CarryOverPatient,
		CarryOverHistory: row.CarryOverHistory,
		BillingAmount:    row.BillingAmount,
		Total:            row.Total,
		GrandTotal:       row.GrandTotal,
		StaffID:          row.StaffID,
		StaffName:        row.StaffName,
		BankStatus:       row.BankStatus,
		PaidStatus:       row.PaidStatus,
		ReceiptMonths:    months,
		SkipInvoice:      row.SkipInvoice != 0,
		AggregateStatus:  row.AggregateStatus,
		Remark:           row.Remark,
	}
}

const billingColumns = `
	billing_month, patient_id, name_kanji, name_kana, address, insurance_type,
	burden_rate, visit_count, unit_price, treatment_amount, transport_amount,
	carry_over_patient, carry_over_history, billing_amount, total, grand_total,
	staff_id, staff_name, bank_status, paid_status,
	receipt_months, skip_invoice, aggregate_status, remark`

// UpsertBillingLinesInTx は確定済み請求明細を月×患者キーで洗い替えます。
func UpsertBillingLinesInTx(tx *sqlx.Tx, items []model.BillingLineItem) error {
	const q = `
		INSERT INTO billing_records (` + billingColumns + `)
		VALUES (:billing_month, :patient_id, :name_kanji, :name_kana, :address,
			:insurance_type, :burden_rate, :visit_count, :unit_price,
			:treatment_amount, :transport_amount, :carry_over_patient,
			:carry_over_history, :billing_amount, :total, :grand_total,
			:staff_id, :staff_name, :bank_status, :paid_status,
			:receipt_months, :skip_invoice, :aggregate_status, :remark)
		ON CONFLICT(billing_month, patient_id) DO UPDATE SET
			name_kanji = excluded.name_kanji,
			name_kana = excluded.name_kana,
			address = excluded.address,
			insurance_type = excluded.insurance_type,
			burden_rate = excluded.burden_rate,
			visit_count = excluded.visit_count,
			unit_price = excluded.unit_price,
			treatment_amount = excluded.treatment_amount,
			transport_amount = excluded.transport_amount,
			carry_over_patient = excluded.carry_over_patient,
			carry_over_history = excluded.carry_over_history,
			billing_amount = excluded.billing_amount,
			total = excluded.total,
			grand_total = excluded.grand_total,
			staff_id = excluded.staff_id,
			staff_name = excluded.staff_name,
			bank_status = excluded.bank_status,
			paid_status = excluded.paid_status,
			receipt_months = excluded.receipt_months,
			skip_invoice = excluded.skip_invoice,
			aggregate_status = excluded.aggregate_status,
			remark = excluded.remark
	`
	for _, item := range items {
		if _, err := tx.NamedExec(q, toRow(item)); err != nil {
			return fmt.Errorf("UpsertBillingLinesInTx (%s/%s) failed: %w", item.BillingMonth, item.PatientID, err)
		}
	}
	return nil
}

// GetBillingLine は月×患者の確定済み明細を返します。未存在は nil です。
func GetBillingLine(db *sqlx.DB, month, patientID string) (*model.BillingLineItem, error) {
	var row billingLineRow
	err := db.Get(&row, `SELECT `+billingColumns+` FROM billing_records
		WHERE billing_month = ? AND patient_id = ?`, month, patientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetBillingLine (%s/%s) failed: %w", month, patientID, err)
	}
	item := fromRow(row)
	return &item, nil
}

// GetBillingLines は月の確定済み明細一覧を返します。
func GetBillingLines(db *sqlx.DB, month string) ([]model.BillingLineItem, error) {
	var rows []billingLineRow
	err := db.Select(&rows, `SELECT `+billingColumns+` FROM billing_records
		WHERE billing_month = ? ORDER BY patient_id`, month)
	if err != nil {
		return nil, fmt.Errorf("GetBillingLines (%s) failed: %w", month, err)
	}

	items := make([]model.BillingLineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromRow(row))
	}
	return items, nil
}

// MarkSkipInvoice は合算に取り込まれた月をスキップ扱いへ更新します。
// スキップ月の請求書・振替行は生成されません。
func MarkSkipInvoice(db *sqlx.DB, month, patientID string) error {
	const q = `UPDATE billing_records
		SET skip_invoice = 1, grand_total = 0
		WHERE billing_month = ? AND patient_id = ?`
	if _, err := db.Exec(q, month, patientID); err != nil {
		return fmt.Errorf("MarkSkipInvoice (%s/%s) failed: %w", month, patientID, err)
	}
	return nil
}
