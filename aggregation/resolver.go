package aggregation

import (
	"fmt"
	"log"

	"seikyu/model"
	"seikyu/normalize"
)

// FlagSource は「この月は単独請求しない(未納・合算対象)」フラグの参照です。
// 実体は振替結果の履歴、またはオペレーターのチェック状態です。
type FlagSource interface {
	IsAggregate(month, patientID string) (bool, error)
}

// LineSource は過去月の確定済み請求明細の参照です。
type LineSource interface {
	GetBillingLine(month, patientID string) (*model.BillingLineItem, error)
}

// LineMarker は合算に取り込んだ過去月をスキップ扱いに更新します。
type LineMarker interface {
	MarkSkipInvoice(month, patientID string) error
}

// Logger は注入用の最小ログポートです。テストでは出力を捕捉できます。
type Logger interface {
	Log(format string, args ...any)
}

type stdLogger struct{}

func (stdLogger) Log(format string, args ...any) { log.Printf(format, args...) }

// Resolver は当月の請求明細に未納月の合算を適用します。
// 後方への歩みはパニック防止のため MaxChainMonths で必ず打ち切ります。
type Resolver struct {
	Flags          FlagSource
	Lines          LineSource
	Marker         LineMarker
	MaxChainMonths int
	Logger         Logger
}

func NewResolver(flags FlagSource, lines LineSource, marker LineMarker, maxMonths int) *Resolver {
	if maxMonths <= 0 {
		maxMonths = 12
	}
	return &Resolver{
		Flags:          flags,
		Lines:          lines,
		Marker:         marker,
		MaxChainMonths: maxMonths,
		Logger:         stdLogger{},
	}
}

// ResolvePatient は1患者分の明細を合算解決して返します。
// フラグや過去データが欠けている・壊れている場合は合算なし(単独請求)へ
// 安全側に倒し、エラーにはしません。
func (r *Resolver) ResolvePatient(item model.BillingLineItem) model.BillingLineItem {
	chain := []string{item.BillingMonth}
	priorSum := 0
	prev := normalize.PrevMonth(item.BillingMonth)

	for len(chain) < r.MaxChainMonths {
		flagged, err := r.Flags.IsAggregate(prev, item.PatientID)
		if err != nil {
			r.Logger.Log("WARN: aggregate flag lookup failed (month=%s patient=%s): %v", prev, item.PatientID, err)
			break
		}
		if !flagged {
			break
		}
		line, err := r.Lines.GetBillingLine(prev, item.PatientID)
		if err != nil {
			r.Logger.Log("WARN: prior billing line lookup failed (month=%s patient=%s): %v", prev, item.PatientID, err)
			break
		}
		if line == nil {
			break
		}

		var amount int
		var months []string
		switch {
		case line.AggregateStatus == model.AggregateConfirmed && len(line.ReceiptMonths) > 0:
			// 過去月自体が合算請求だった場合はその領収月ごと取り込む
			amount = line.GrandTotal
			months = line.ReceiptMonths
		case line.SkipInvoice:
			// 既にスキップ済み(GrandTotal=0)の月は単独時の構成額を復元する
			amount = line.BillingAmount + line.TransportAmount + line.CarryOver()
			months = []string{prev}
		default:
			amount = line.GrandTotal
			months = []string{prev}
		}

		chain = append(append([]string{}, months...), chain...)
		priorSum += amount
		prev = normalize.PrevMonth(months[0])
	}

	if len(chain) == 1 {
		return item
	}

	// チェーン末尾(当月)以外はスキップ扱いへ更新する
	for _, m := range chain[:len(chain)-1] {
		if r.Marker == nil {
			continue
		}
		if err := r.Marker.MarkSkipInvoice(m, item.PatientID); err != nil {
			r.Logger.Log("WARN: failed to mark skip invoice (month=%s patient=%s): %v", m, item.PatientID, err)
		}
	}

	item.CarryOverHistory += priorSum
	item.GrandTotal = item.BillingAmount + item.TransportAmount + item.CarryOver()
	item.ReceiptMonths = chain
	item.AggregateStatus = model.AggregateConfirmed
	item.Remark = fmt.Sprintf("合算請求(%s〜%s、%dヶ月分)", chain[0], chain[len(chain)-1], len(chain))
	return item
}

// ResolveAll は月次の明細一式に合算解決を適用します。
// 患者が異なれば互いに独立で、同一患者の後方参照だけが逐次依存です。
func (r *Resolver) ResolveAll(items []model.BillingLineItem) []model.BillingLineItem {
	out := make([]model.BillingLineItem, 0, len(items))
	for _, item := range items {
		out = append(out, r.ResolvePatient(item))
	}
	return out
}
