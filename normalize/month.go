package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateMonth は請求月キー("YYYYMM")を検証します。
// 下流の合算・振替がすべてこのキーで引かれるため、
// 不正な月キーはデフォルトへ落とさず即エラーです。
func ValidateMonth(month string) error {
	m := strings.TrimSpace(fold(month))
	if len(m) != 6 {
		return fmt.Errorf("請求月が不正です(YYYYMM形式が必要): %q", month)
	}
	year, err := strconv.Atoi(m[:4])
	if err != nil || year < 2000 || year > 2999 {
		return fmt.Errorf("請求月の年が不正です: %q", month)
	}
	mm, err := strconv.Atoi(m[4:])
	if err != nil || mm < 1 || mm > 12 {
		return fmt.Errorf("請求月の月が不正です: %q", month)
	}
	return nil
}

// CanonicalMonth は全角数字などを畳み込んだ正準の月キーを返します。
func CanonicalMonth(month string) (string, error) {
	m := strings.TrimSpace(fold(month))
	if err := ValidateMonth(m); err != nil {
		return "", err
	}
	return m, nil
}

// PrevMonth は1ヶ月前の月キーを返します。入力は検証済み前提です。
func PrevMonth(month string) string {
	year, _ := strconv.Atoi(month[:4])
	mm, _ := strconv.Atoi(month[4:])
	mm--
	if mm == 0 {
		mm = 12
		year--
	}
	return fmt.Sprintf("%04d%02d", year, mm)
}
