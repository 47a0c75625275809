package payload

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"seikyu/model"
)

// SavePreparedHandler は1ヶ月分の計算結果ペイロードをキャッシュへ保存します。
func SavePreparedHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "ペイロードキャッシュが設定されていません(redisAddr)", http.StatusServiceUnavailable)
			return
		}

		var p model.PreparedPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if result := Validate(&p); !result.OK {
			http.Error(w, "ペイロードが不正です: "+result.Reason, http.StatusBadRequest)
			return
		}

		if err := store.Save(r.Context(), p); err != nil {
			log.Printf("ERROR: Failed to save prepared payload for %s: %v", p.BillingMonth, err)
			http.Error(w, "ペイロードの保存に失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "計算結果を保存しました。"})
	}
}

// LoadPreparedHandler はキャッシュからペイロードを復元します。
// キャッシュミス(チャンク欠損含む)と検証NGはともに404で、理由を返します。
func LoadPreparedHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "ペイロードキャッシュが設定されていません(redisAddr)", http.StatusServiceUnavailable)
			return
		}

		month := r.URL.Query().Get("month")
		if month == "" {
			http.Error(w, "month is required", http.StatusBadRequest)
			return
		}

		p, err := store.Load(r.Context(), month)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"status": "miss"})
				return
			}
			http.Error(w, "ペイロードの読み込みに失敗: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if result := Validate(p); !result.OK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"status": "invalid", "reason": result.Reason})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}
