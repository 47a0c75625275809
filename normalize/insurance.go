package normalize

import (
	"math"
	"strings"

	"seikyu/model"
)

// InsuranceType は保険種別の表記ゆれを正準コードへ寄せます。
// 既知の型に当たらない表記はそのまま返し、下流では通常保険扱いになります。
func InsuranceType(v any) string {
	s := strings.TrimSpace(fold(toText(v)))
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	switch {
	case lower == model.InsuranceSelfPay || strings.Contains(s, "自費"):
		return model.InsuranceSelfPay
	case lower == model.InsuranceMassageOnly || strings.Contains(s, "マッサージ"):
		return model.InsuranceMassageOnly
	case lower == model.InsuranceLifeAssistance || strings.Contains(s, "生活保護") || strings.Contains(s, "生保"):
		return model.InsuranceLifeAssistance
	case lower == model.InsuranceMedicalAssistance || strings.Contains(s, "助成"):
		return model.InsuranceMedicalAssistance
	case lower == model.InsuranceRegular || strings.Contains(s, "保険") || strings.Contains(s, "通常"):
		return model.InsuranceRegular
	default:
		return s
	}
}

// RoundToNearestTen は10円単位の四捨五入(ゼロから遠い側へ半数切り上げ)です。
// 丸め済みの値に適用しても変わりません。
func RoundToNearestTen(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return -RoundToNearestTen(-v)
	}
	return int(math.Floor(v/10+0.5)) * 10
}
