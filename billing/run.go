package billing

import (
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"seikyu/aggregation"
	"seikyu/config"
	"seikyu/database"
	"seikyu/model"
	"seikyu/normalize"
)

// ComputeMonth は対象月の全患者分の請求明細を計算し、未納月の合算を
// 解決したうえで billing_records へ洗い替えます。
// 入力スナップショット(患者・訪問回数・振替結果)を先にまとめて取得し、
// 以降の計算はメモリ上で完結させます。
func ComputeMonth(conn *sqlx.DB, cfg config.Config, month string) ([]model.BillingLineItem, error) {
	// 月キーが壊れていると合算も振替もすべて誤るため、ここで必ず弾く
	m, err := normalize.CanonicalMonth(month)
	if err != nil {
		return nil, err
	}

	patients, err := database.GetPatientMap(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}
	visitCounts, err := database.GetVisitCountMap(conn, m)
	if err != nil {
		return nil, fmt.Errorf("failed to load visit counts: %w", err)
	}
	statuses, err := database.GetBankStatusMap(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank statuses: %w", err)
	}

	calc := NewCalculator(cfg)
	store := database.NewBillingStore(conn)
	resolver := aggregation.NewResolver(store, store, store, cfg.MaxAggregateMonths)

	// 再現性のため患者ID順で処理する
	ids := make([]string, 0, len(patients))
	for id := range patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]model.BillingLineItem, 0, len(ids))
	for _, id := range ids {
		item := calc.Calculate(m, patients[id], visitCounts[id])
		if st, ok := statuses[id]; ok {
			item.BankStatus = normalize.BankStatus(st.BankStatus)
			item.PaidStatus = st.PaidStatus
		}
		items = append(items, item)
	}

	items = resolver.ResolveAll(items)

	tx, err := conn.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := database.UpsertBillingLinesInTx(tx, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit billing records: %w", err)
	}

	return items, nil
}

// BuildPreparedPayload は計算結果からキャッシュ用ペイロードを組み立てます。
func BuildPreparedPayload(month string, items []model.BillingLineItem, statuses map[string]model.BankStatusEntry) model.PreparedPayload {
	ledger := make(map[string]int)
	for _, item := range items {
		if c := item.CarryOver(); c != 0 {
			ledger[item.PatientID] = c
		}
	}
	if statuses == nil {
		statuses = make(map[string]model.BankStatusEntry)
	}
	return model.PreparedPayload{
		SchemaVersion:   model.PayloadSchemaVersion,
		BillingMonth:    month,
		BillingJSON:     items,
		CarryOverLedger: ledger,
		BankStatusMap:   statuses,
	}
}
