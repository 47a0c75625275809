package billing

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"seikyu/config"
	"seikyu/database"
	"seikyu/normalize"
	"seikyu/payload"
)

// RunBillingHandler は対象月の請求計算を実行します。
// キャッシュストアが設定されていれば計算結果のペイロードも保存します。
func RunBillingHandler(conn *sqlx.DB, store *payload.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Month string `json:"month"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		cfg := config.GetConfig()
		items, err := ComputeMonth(conn, cfg, req.Month)
		if err != nil {
			log.Printf("ERROR: Billing computation failed for %s: %v", req.Month, err)
			http.Error(w, "請求計算に失敗: "+err.Error(), http.StatusBadRequest)
			return
		}

		if store != nil {
			statuses, stErr := database.GetBankStatusMap(conn)
			if stErr != nil {
				log.Printf("WARN: Failed to load bank statuses for payload: %v", stErr)
			}
			month, _ := normalize.CanonicalMonth(req.Month)
			p := BuildPreparedPayload(month, items, statuses)
			if saveErr := store.Save(r.Context(), p); saveErr != nil {
				// キャッシュ失敗は計算結果には影響しない
				log.Printf("WARN: Failed to cache prepared payload for %s: %v", month, saveErr)
			}
		}

		aggregated := 0
		for _, item := range items {
			if item.AggregateStatus != "" {
				aggregated++
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": fmt.Sprintf("%d名分の請求を確定しました(うち合算 %d件)。", len(items), aggregated),
			"items":   items,
		})
	}
}

// ListBillingHandler は確定済みの請求明細一覧を返します。
func ListBillingHandler(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if err := normalize.ValidateMonth(month); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := database.GetBillingLines(conn, month)
		if err != nil {
			http.Error(w, "請求明細の取得に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

// SetAggregateFlagHandler はオペレーターの「未納(合算対象)」チェックを記録します。
func SetAggregateFlagHandler(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Month     string `json:"month"`
			PatientID string `json:"patientId"`
			Flagged   bool   `json:"flagged"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := normalize.ValidateMonth(req.Month); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.PatientID) == "" {
			http.Error(w, "patientId is required", http.StatusBadRequest)
			return
		}

		tx, err := conn.Beginx()
		if err != nil {
			http.Error(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		if err := database.SetAggregateFlagInTx(tx, req.Month, req.PatientID, req.Flagged); err != nil {
			http.Error(w, "フラグの更新に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(); err != nil {
			http.Error(w, "Failed to commit transaction", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "未納フラグを更新しました。"})
	}
}

// ExportBillingCSVHandler は請求明細をオペレーター確認用のCSVで返します。
func ExportBillingCSVHandler(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if err := normalize.ValidateMonth(month); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := database.GetBillingLines(conn, month)
		if err != nil {
			http.Error(w, "請求明細の取得に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
		writer := csv.NewWriter(&buf)

		header := []string{
			"請求月", "患者番号", "氏名", "保険種別", "負担割合", "訪問回数",
			"単価", "施術料", "往療費", "請求額", "繰越", "合計請求額",
			"領収対象月", "合算", "備考",
		}
		if err := writer.Write(header); err != nil {
			http.Error(w, "Failed to write CSV header: "+err.Error(), http.StatusInternalServerError)
			return
		}

		for _, item := range items {
			if item.SkipInvoice {
				continue
			}
			row := []string{
				item.BillingMonth,
				item.PatientID,
				item.NameKanji,
				item.InsuranceType,
				strconv.Itoa(item.BurdenRate),
				strconv.Itoa(item.VisitCount),
				strconv.Itoa(item.UnitPrice),
				strconv.Itoa(item.TreatmentAmount),
				strconv.Itoa(item.TransportAmount),
				strconv.Itoa(item.BillingAmount),
				strconv.Itoa(item.CarryOver()),
				strconv.Itoa(item.GrandTotal),
				strings.Join(item.ReceiptMonths, "/"),
				item.AggregateStatus,
				item.Remark,
			}
			if err := writer.Write(row); err != nil {
				log.Printf("WARN: Failed to write billing row to CSV (Patient: %s): %v", item.PatientID, err)
			}
		}
		writer.Flush()

		if err := writer.Error(); err != nil {
			http.Error(w, "Failed to flush CSV writer: "+err.Error(), http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("請求明細_%s_%s.csv", month, time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
		w.Write(buf.Bytes())
	}
}
