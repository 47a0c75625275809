package bank

import (
	"strings"

	"seikyu/model"
	"seikyu/normalize"
)

// normalizeName は口座名義の照合キー(空白除去済みの氏名)を作ります。
func normalizeName(s string) string {
	return strings.NewReplacer(" ", "", "　", "", "\t", "").Replace(strings.TrimSpace(s))
}

// digitsOnly はコードから数字以外を除去します(全角は事前に畳み込み)。
func digitsOnly(s string) string {
	folded := normalize.BankStatus(s) // 幅折り畳み+区切り除去を流用
	var b strings.Builder
	for _, r := range folded {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// exactCode はコードを数字のみに正規化し、指定桁ちょうどであることを
// 要求します。銀行・支店コードをゼロ埋めで補完してはいけません
// (3桁の銀行コードは省略形ではなく打ち間違い)。
func exactCode(s string, width int) (string, bool) {
	digits := digitsOnly(s)
	if len(digits) != width {
		return "", false
	}
	return digits, true
}

// padCode は口座番号を数字のみに正規化し width 桁へゼロ埋めします。
// 空・桁あふれは不正です(空をゼロ埋めで通してはいけない)。
func padCode(s string, width int) (string, bool) {
	digits := digitsOnly(s)
	if digits == "" || len(digits) > width {
		return "", false
	}
	return strings.Repeat("0", width-len(digits)) + digits, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// BuildTransferRows は確定済み請求明細から口座振替行を生成します。
// 口座情報の優先順位は 口座マスタ(名義引き) > 患者マスタ。
// 銀行コードは4桁・支店コードは3桁ちょうどを要求し、ゼロ埋めは
// 口座番号(7桁)だけに行います。コード不正の行は理由別カウンタに
// 積んで除外します。除外は必ず SkipReasons として呼び出し側へ返り、
// 黙って消えることはありません。
func BuildTransferRows(
	items []model.BillingLineItem,
	accounts map[string]model.BankAccount, // 正規化済み名義 -> 口座
	patients map[string]model.PatientRecord, // patientId -> 患者マスタ
	statuses map[string]model.BankStatusEntry, // patientId -> 振替結果
) model.BankExportSummary {
	summary := model.BankExportSummary{Rows: []model.BankTransferRow{}}

	for _, item := range items {
		if item.SkipInvoice {
			continue
		}
		summary.Total++

		patient := patients[item.PatientID]
		account, hasAccount := accounts[normalizeName(item.NameKanji)]

		var rawBank, rawBranch, rawAccount, kana, regulation string
		isNew := 0
		if hasAccount {
			rawBank = firstNonEmpty(account.BankCode, patient.BankCode)
			rawBranch = firstNonEmpty(account.BranchCode, patient.BranchCode)
			rawAccount = firstNonEmpty(account.AccountNumber, patient.AccountNumber)
			kana = firstNonEmpty(account.NameKana, item.NameKana)
			regulation = account.RegulationCode
			isNew = account.IsNew
		} else {
			rawBank = patient.BankCode
			rawBranch = patient.BranchCode
			rawAccount = patient.AccountNumber
			kana = item.NameKana
		}

		bankCode, bankOK := exactCode(rawBank, 4)
		branchCode, branchOK := exactCode(rawBranch, 3)
		accountNumber, accountOK := padCode(rawAccount, 7)

		if !bankOK {
			summary.SkipReasons.InvalidBankCode++
		}
		if !branchOK {
			summary.SkipReasons.InvalidBranchCode++
		}
		if !accountOK {
			summary.SkipReasons.InvalidAccountNumber++
		}
		if !bankOK || !branchOK || !accountOK {
			// 複数理由に数えても Skipped への寄与は1回
			summary.Skipped++
			continue
		}

		if strings.TrimSpace(regulation) == "" {
			regulation = "1"
		}

		row := model.BankTransferRow{
			BillingMonth:   item.BillingMonth,
			PatientID:      item.PatientID,
			NameKanji:      item.NameKanji,
			BankCode:       bankCode,
			BranchCode:     branchCode,
			RegulationCode: regulation,
			AccountNumber:  accountNumber,
			NameKana:       kana,
			IsNew:          isNew,
		}
		if st, ok := statuses[item.PatientID]; ok {
			row.PaidStatus = st.PaidStatus
		}
		summary.Rows = append(summary.Rows, row)
		summary.Passed++
	}

	return summary
}
