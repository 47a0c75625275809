package automation

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"

	"seikyu/config"
	"seikyu/database"
	"seikyu/model"
	"seikyu/normalize"
	"seikyu/parsers"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// DownloadDebitResultsHandler は銀行ポータルから振替結果CSVをダウンロードし、
// そのまま取り込むハンドラです。
func DownloadDebitResultsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, "POSTメソッドを使用してください", http.StatusMethodNotAllowed)
			return
		}

		month, err := normalize.CanonicalMonth(r.URL.Query().Get("month"))
		if err != nil {
			writeJSONError(w, "請求月の形式が不正です: "+err.Error(), http.StatusBadRequest)
			return
		}

		// 1. 設定読み込み
		cfg, err := config.LoadConfig()
		if err != nil {
			writeJSONError(w, "設定の読み込みに失敗しました: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if cfg.BankPortalUserID == "" || cfg.BankPortalPassword == "" {
			writeJSONError(w, "銀行ポータルのIDまたはパスワードが設定されていません。設定画面を確認してください。", http.StatusBadRequest)
			return
		}

		saveDir := cfg.BankDownloadDir
		if saveDir == "" {
			saveDir = os.TempDir()
		}

		// 2. 自動操作の実行
		log.Println("振替結果のダウンロードを開始します...")
		filePath, err := DownloadDebitResults(cfg.BankPortalUserID, cfg.BankPortalPassword, saveDir)
		if err != nil {
			log.Printf("ERROR: 自動ダウンロード失敗: %v", err)
			writeJSONError(w, "ダウンロード処理中にエラーが発生しました: "+err.Error(), http.StatusInternalServerError)
			return
		}

		// データなし（正常系）
		if filePath == "NO_DATA" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"status":  "no_data",
				"message": "対象となる振替結果データはありませんでした。",
			})
			return
		}

		// 3. ダウンロードしたファイルの取り込み
		f, err := os.Open(filePath)
		if err != nil {
			writeJSONError(w, "ダウンロードファイルのオープンに失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		records, err := parsers.ParseDebitResultCSV(f)
		if err != nil {
			writeJSONError(w, "振替結果CSVの解析に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		imported, err := ImportDebitResults(db, month, records)
		if err != nil {
			writeJSONError(w, "振替結果の登録に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "success",
			"message":  fmt.Sprintf("振替結果を%d件取り込みました。", imported),
			"filePath": filePath,
			"records":  imported,
		})
	}
}

// ImportDebitResults は振替結果を登録します。結果がNGの患者は
// 翌月合算の対象として合算フラグを立てます。
func ImportDebitResults(db *sqlx.DB, month string, records []parsers.DebitResultRecord) (int, error) {
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, rec := range records {
		status := normalize.BankStatus(rec.BankStatus)
		if !normalize.IsCanonicalBankStatus(status) {
			log.Printf("WARN: 不明な振替結果をスキップ (患者=%s, 値=%q)", rec.PatientID, rec.BankStatus)
			continue
		}
		entry := model.BankStatusEntry{
			PatientID:  rec.PatientID,
			BankStatus: status,
			PaidStatus: rec.PaidStatus,
		}
		if err := database.UpsertBankStatusInTx(tx, entry); err != nil {
			return 0, err
		}
		if status == "NG" {
			if err := database.SetAggregateFlagInTx(tx, month, rec.PatientID, true); err != nil {
				return 0, err
			}
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit debit results: %w", err)
	}
	return imported, nil
}
