package bank

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"

	"seikyu/config"
	"seikyu/database"
	"seikyu/model"
	"seikyu/normalize"
	"seikyu/parsers"
)

func buildSummaryForMonth(conn *sqlx.DB, month string) (model.BankExportSummary, []model.BillingLineItem, error) {
	items, err := database.GetBillingLines(conn, month)
	if err != nil {
		return model.BankExportSummary{}, nil, err
	}
	accounts, err := database.GetBankAccountMap(conn)
	if err != nil {
		return model.BankExportSummary{}, nil, err
	}
	patients, err := database.GetPatientMap(conn)
	if err != nil {
		return model.BankExportSummary{}, nil, err
	}
	statuses, err := database.GetBankStatusMap(conn)
	if err != nil {
		return model.BankExportSummary{}, nil, err
	}
	return BuildTransferRows(items, accounts, patients, statuses), items, nil
}

// GetTransferRowsHandler は対象月の振替行と除外サマリを返します。
// SkipReasons を含むサマリ全体を返すのが契約です(除外を隠さない)。
func GetTransferRowsHandler(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if err := normalize.ValidateMonth(month); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		summary, _, err := buildSummaryForMonth(conn, month)
		if err != nil {
			log.Printf("ERROR: Failed to build transfer rows for %s: %v", month, err)
			http.Error(w, "振替行の生成に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// ExportZenginHandler は全銀フォーマットの振替依頼データをダウンロードさせます。
func ExportZenginHandler(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if err := normalize.ValidateMonth(month); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		summary, items, err := buildSummaryForMonth(conn, month)
		if err != nil {
			http.Error(w, "振替行の生成に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		amounts := make(map[string]int)
		for _, item := range items {
			if !item.SkipInvoice {
				amounts[item.PatientID] = item.GrandTotal
			}
		}

		cfg := config.GetConfig()
		data, err := GenerateZenginData(cfg.CommitterCode, cfg.CommitterName, time.Now(), summary.Rows, amounts)
		if err != nil {
			http.Error(w, "全銀データの生成に失敗: "+err.Error(), http.StatusBadRequest)
			return
		}

		if summary.Skipped > 0 {
			log.Printf("WARN: %d rows skipped for %s (bank=%d branch=%d account=%d)",
				summary.Skipped, month,
				summary.SkipReasons.InvalidBankCode,
				summary.SkipReasons.InvalidBranchCode,
				summary.SkipReasons.InvalidAccountNumber)
		}

		filename := fmt.Sprintf("口座振替依頼_%s.txt", month)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
		w.Header().Set("X-Skipped-Rows", fmt.Sprintf("%d", summary.Skipped))
		w.Write(data)
	}
}

// ImportDebitResultsHandler は銀行から取得した振替結果CSVを取り込みます。
// 結果がNGの患者には請求月の「合算対象(未納)」フラグを立てます。
func ImportDebitResultsHandler(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if err := normalize.ValidateMonth(month); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "CSVファイルの読み取りに失敗: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		results, err := parsers.ParseDebitResultCSV(file)
		if err != nil {
			http.Error(w, "CSVファイルの解析に失敗: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(results) == 0 {
			http.Error(w, "CSVから読み込むデータがありません。", http.StatusBadRequest)
			return
		}

		tx, err := conn.Beginx()
		if err != nil {
			http.Error(w, "データベーストランザクションの開始に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		imported := 0
		flagged := 0
		for _, rec := range results {
			status := normalize.BankStatus(rec.BankStatus)
			entry := model.BankStatusEntry{
				PatientID:  rec.PatientID,
				BankStatus: status,
				PaidStatus: rec.PaidStatus,
			}
			if err := database.UpsertBankStatusInTx(tx, entry); err != nil {
				log.Printf("ERROR: Failed to upsert bank status %s: %v", rec.PatientID, err)
				continue
			}
			imported++

			if status == "NG" {
				if err := database.SetAggregateFlagInTx(tx, month, rec.PatientID, true); err != nil {
					log.Printf("ERROR: Failed to flag unpaid month %s/%s: %v", month, rec.PatientID, err)
					continue
				}
				flagged++
			}
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "データベースのコミットに失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": fmt.Sprintf("振替結果を%d件取り込みました(未納フラグ %d件)。", imported, flagged),
		})
	}
}
