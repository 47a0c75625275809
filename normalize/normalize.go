package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// SelfPay は負担割合の「自費」を表す番兵値です。
const SelfPay = -1

// セル値は string / 数値 / bool / nil のいずれでも来るため、
// まず文字列表現へ寄せてから解釈します。パース不能は常に
// 安全なデフォルト(0 / 空 / false)へ落とし、決して panic しません。

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// fold は全角数字・全角記号をASCIIへ畳み込みます(NFKC相当の幅折り畳み)。
func fold(s string) string {
	return width.Fold.String(s)
}

var moneyReplacer = strings.NewReplacer(",", "", "，", "", "、", "", "¥", "", "￥", "", "円", "")

// Money は金額セルを整数円へ正規化します。桁区切り(半角・全角)と
// 円記号を除去してからパースし、パース不能・非有限は 0 です。
func Money(v any) int {
	s := strings.TrimSpace(moneyReplacer.Replace(fold(toText(v))))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// VisitCount は訪問回数を非負整数へ正規化します。
// 数値そのもののほか、visitCount フィールドを持つマップも受け付けます。
func VisitCount(v any) int {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["visitCount"]; ok {
			v = inner
		} else {
			return 0
		}
	}
	n := Money(v)
	if n < 0 {
		return 0
	}
	return n
}

var selfPayTokens = []string{"自費", "じひ", "self-pay", "selfpay"}

// BurdenRate は負担割合を 1..10 の「割」へ正規化します。
//   - 「自費」系の文言は SelfPay
//   - [1,10) はそのまま割数、(0,1) は小数負担率(×10)、[10,100] はパーセント(÷10)
//   - 「3割」「30%」「３割」のような文言は幅折り畳みと接尾辞除去の後に同じ規則
//   - パース不能・0 は 0(=負担なし、請求なし)
func BurdenRate(v any) int {
	s := strings.TrimSpace(fold(toText(v)))
	if s == "" {
		return 0
	}
	lower := strings.ToLower(s)
	for _, tok := range selfPayTokens {
		if strings.Contains(lower, tok) {
			return SelfPay
		}
	}
	for _, suffix := range []string{"割負担", "割", "%", "ﾊﾟｰｾﾝﾄ", "パーセント", "負担"} {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return rateFromNumber(f)
}

func rateFromNumber(f float64) int {
	switch {
	case f >= 1 && f < 10:
		// 割数そのもの。(0,1] の小数規則と 1 で重なるが、1 は「1割」を優先する。
		return int(math.Round(f))
	case f > 0 && f < 1:
		return int(math.Round(f * 10))
	case f >= 10 && f <= 100:
		return int(math.Round(f / 10))
	default:
		return 0
	}
}

var affirmativeTokens = map[string]bool{
	"1": true, "true": true, "yes": true, "y": true,
	"有": true, "あり": true, "有り": true, "○": true, "◯": true, "該当": true,
}

// MedicalAssistanceFlag は医療助成フラグを bool へ正規化します。
func MedicalAssistanceFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	}
	s := strings.ToLower(strings.TrimSpace(fold(toText(v))))
	return affirmativeTokens[s]
}

var bankStatusReplacer = strings.NewReplacer(" ", "", "　", "", "-", "", "_", "", "・", "")

// 振替結果の正準コード。これ以外は大文字化したまま素通しする
// (見える形で残すが、下流で意味を保証しない)。
var canonicalBankStatus = map[string]bool{
	"OK": true, "NG": true, "PENDING": true, "STOP": true,
}

// BankStatus は振替結果コードを正規化します。
func BankStatus(v any) string {
	s := strings.ToUpper(bankStatusReplacer.Replace(strings.TrimSpace(fold(toText(v)))))
	return s
}

// IsCanonicalBankStatus は正準コードかどうかを返します。
func IsCanonicalBankStatus(s string) bool {
	return canonicalBankStatus[s]
}
