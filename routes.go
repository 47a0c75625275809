package main

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"seikyu/automation"
	"seikyu/bank"
	"seikyu/billing"
	"seikyu/loader"
	"seikyu/payload"
)

func SetupRoutes(mux *http.ServeMux, dbConn *sqlx.DB, store *payload.Store) {

	// マスタ取込
	mux.HandleFunc("/api/patients/import", loader.ImportPatientsHandler(dbConn))
	mux.HandleFunc("/api/visits/import", loader.ImportVisitsHandler(dbConn))
	mux.HandleFunc("/api/accounts/import", loader.ImportBankAccountsHandler(dbConn))

	// 請求計算
	mux.HandleFunc("/api/billing/run", billing.RunBillingHandler(dbConn, store))
	mux.HandleFunc("/api/billing/list", billing.ListBillingHandler(dbConn))
	mux.HandleFunc("/api/billing/flag", billing.SetAggregateFlagHandler(dbConn))
	mux.HandleFunc("/api/billing/export_csv", billing.ExportBillingCSVHandler(dbConn))

	// 口座振替
	mux.HandleFunc("/api/bank/rows", bank.GetTransferRowsHandler(dbConn))
	mux.HandleFunc("/api/bank/export_zengin", bank.ExportZenginHandler(dbConn))
	mux.HandleFunc("/api/bank/import_results", bank.ImportDebitResultsHandler(dbConn))

	// ネットバンキング自動操作
	mux.HandleFunc("/api/automation/debit_results/download", automation.DownloadDebitResultsHandler(dbConn))

	// 計算結果ペイロードのキャッシュ
	mux.HandleFunc("/api/payload/save", payload.SavePreparedHandler(store))
	mux.HandleFunc("/api/payload/load", payload.LoadPreparedHandler(store))

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GetConfigHandler()(w, r)
		case http.MethodPost:
			SaveConfigHandler()(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
}
