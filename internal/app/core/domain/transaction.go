package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeLayout 交易時間的顯示格式
const TimeLayout = "2006-01-02 15:04:05"

// Transaction 單筆餘額異動紀錄，建立後不可修改
type Transaction struct {
	// Ref: 外部追蹤號，對應觸發此異動的 Command
	Ref uuid.UUID
	// At: 交易時間
	At time.Time
	// Amount: 實際套用的異動金額 (提款為負數，含手續費)
	Amount decimal.Decimal
	// Balance: 異動後的餘額
	Balance decimal.Decimal
}

// String 回傳一行可供顯示或匯出的交易紀錄
func (t Transaction) String() string {
	return fmt.Sprintf("%s %s Balance: %s",
		t.At.Format(TimeLayout),
		FormatAmount(t.Amount),
		FormatAmount(t.Balance),
	)
}
