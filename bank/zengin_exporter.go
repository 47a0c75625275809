package bank

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"seikyu/model"
)

// 全銀フォーマット(口座振替依頼)は1レコード120バイトの固定長・Shift_JISです。
const zenginRecordLen = 120

// ZenginBuilder は固定長の振替依頼データを組み立てます。
type ZenginBuilder struct {
	committerCode string // 委託者コード(10桁)
	committerName string // 委託者名(カナ)
	buffer        *bytes.Buffer
}

func NewZenginBuilder(committerCode, committerName string) *ZenginBuilder {
	return &ZenginBuilder{
		committerCode: committerCode,
		committerName: committerName,
		buffer:        new(bytes.Buffer),
	}
}

// convertToSJIS は文字列をShift_JISバイト列に変換します
func convertToSJIS(s string) ([]byte, error) {
	encoder := japanese.ShiftJIS.NewEncoder()
	encoded, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

// formatField は文字列をShift_JISに変換し、指定バイト長へ
// 右スペース埋め(超過時は切り詰め)して返します。
func formatField(text string, byteLen int) []byte {
	sjisBytes, err := convertToSJIS(text)
	if err != nil {
		return bytes.Repeat([]byte(" "), byteLen)
	}

	if len(sjisBytes) > byteLen {
		return sjisBytes[:byteLen]
	} else if len(sjisBytes) < byteLen {
		padding := bytes.Repeat([]byte(" "), byteLen-len(sjisBytes))
		return append(sjisBytes, padding...)
	}
	return sjisBytes
}

func (b *ZenginBuilder) writeRecord(record []byte) {
	if len(record) > zenginRecordLen {
		record = record[:zenginRecordLen]
	} else if len(record) < zenginRecordLen {
		record = append(record, bytes.Repeat([]byte(" "), zenginRecordLen-len(record))...)
	}
	b.buffer.Write(record)
	b.buffer.WriteString("\r\n")
}

// ヘッダーレコード
// 構成: 種別"1"(1) + 種別コード"91"(2) + コード区分"0"(1) + 委託者コード(10) +
//       委託者名(40) + 引落日MMDD(4) + 以降スペース
func (b *ZenginBuilder) writeHeaderRecord(debitDate time.Time) {
	var record []byte
	record = append(record, []byte("1")...)
	record = append(record, []byte("91")...)
	record = append(record, []byte("0")...)
	record = append(record, formatField(b.committerCode, 10)...)
	record = append(record, formatField(b.committerName, 40)...)
	record = append(record, formatField(debitDate.Format("0102"), 4)...)
	b.writeRecord(record)
}

// データレコード
// 構成: 種別"2"(1) + 銀行コード(4) + 支店コード(3) + 予備(4) + 預金種目(1) +
//       口座番号(7) + 預金者名カナ(30) + 引落金額(10) + 新規コード(1) +
//       顧客番号(20) + 振替結果コード(1) + 以降スペース
func (b *ZenginBuilder) writeDataRecord(row model.BankTransferRow, amount int) {
	var record []byte
	record = append(record, []byte("2")...)
	record = append(record, formatField(row.BankCode, 4)...)
	record = append(record, formatField(row.BranchCode, 3)...)
	record = append(record, bytes.Repeat([]byte(" "), 4)...)
	record = append(record, formatField(row.RegulationCode, 1)...)
	record = append(record, formatField(row.AccountNumber, 7)...)
	record = append(record, formatField(row.NameKana, 30)...)
	record = append(record, formatField(fmt.Sprintf("%010d", amount), 10)...)
	record = append(record, formatField(fmt.Sprintf("%d", row.IsNew), 1)...)
	record = append(record, formatField(row.PatientID, 20)...)
	record = append(record, []byte("0")...) // 振替結果は依頼時0固定
	b.writeRecord(record)
}

// トレーラーレコード
// 構成: 種別"8"(1) + 合計件数(6) + 合計金額(12) + 以降スペース
func (b *ZenginBuilder) writeTrailerRecord(count, totalAmount int) {
	var record []byte
	record = append(record, []byte("8")...)
	record = append(record, []byte(fmt.Sprintf("%06d", count))...)
	record = append(record, []byte(fmt.Sprintf("%012d", totalAmount))...)
	b.writeRecord(record)
}

// エンドレコード
func (b *ZenginBuilder) writeEndRecord() {
	b.writeRecord([]byte("9"))
}

// GenerateZenginData は振替行と金額(patientId -> 引落額)から
// 全銀フォーマットの固定長データを生成します。
func GenerateZenginData(committerCode, committerName string, debitDate time.Time, rows []model.BankTransferRow, amounts map[string]int) ([]byte, error) {
	if committerCode == "" {
		return nil, fmt.Errorf("委託者コードが設定されていません")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("出力対象の振替行がありません")
	}

	builder := NewZenginBuilder(committerCode, committerName)
	builder.writeHeaderRecord(debitDate)

	totalAmount := 0
	for _, row := range rows {
		amount := amounts[row.PatientID]
		builder.writeDataRecord(row, amount)
		totalAmount += amount
	}

	builder.writeTrailerRecord(len(rows), totalAmount)
	builder.writeEndRecord()

	return builder.buffer.Bytes(), nil
}
