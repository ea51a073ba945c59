package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType 帳戶類型，封閉集合：儲蓄帳戶 / 信用帳戶
type AccountType string

const (
	AccountTypeSavings AccountType = "savings"
	AccountTypeCredit  AccountType = "credit"
)

// Valid 是否為已知的帳戶類型
func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeCredit
}

// 預設帳戶參數
var (
	SavingsRate        = decimal.RequireFromString("2.4")
	SavingsPenaltyRate = decimal.RequireFromString("0.02")

	CreditRate     = decimal.RequireFromString("1.1")
	CreditDebtRate = decimal.RequireFromString("5")
	CreditLimit    = decimal.RequireFromString("-5000")
)

// Account 帳戶
//
// 以 kind 決定利息公式與提款規則：
//
//	savings: hasWithdrawn 一旦為 true 就不會再變回 false，之後每次提款加收 penaltyRate
//	credit:  餘額可為負，但不得低於 creditLimit；負餘額以 debtRate 計息
//
// 不變量: balance == 所有 transactions 的 Amount 總和
type Account struct {
	id           int64
	kind         AccountType
	balance      decimal.Decimal
	rate         decimal.Decimal
	transactions []Transaction

	// savings
	hasWithdrawn bool
	penaltyRate  decimal.Decimal

	// credit
	creditLimit decimal.Decimal
	debtRate    decimal.Decimal
}

func newSavingsAccount(id int64) *Account {
	return &Account{
		id:          id,
		kind:        AccountTypeSavings,
		balance:     decimal.Zero,
		rate:        SavingsRate,
		penaltyRate: SavingsPenaltyRate,
	}
}

func newCreditAccount(id int64) *Account {
	return &Account{
		id:          id,
		kind:        AccountTypeCredit,
		balance:     decimal.Zero,
		rate:        CreditRate,
		debtRate:    CreditDebtRate,
		creditLimit: CreditLimit,
	}
}

func (a *Account) ID() int64                { return a.id }
func (a *Account) Type() AccountType        { return a.kind }
func (a *Account) Balance() decimal.Decimal { return a.balance }
func (a *Account) Rate() decimal.Decimal    { return a.rate }

// HasWithdrawn 儲蓄帳戶是否曾經提款 (信用帳戶固定為 false)
func (a *Account) HasWithdrawn() bool { return a.hasWithdrawn }

// Transactions 回傳交易紀錄的副本
func (a *Account) Transactions() []Transaction {
	out := make([]Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}

// changeBalance 套用餘額異動並追加一筆交易紀錄
//
// 參數:
//
//	ref: 觸發此異動的指令編號
//	delta: 異動金額，負數為提款
//	at: 交易時間
//
// 回傳:
//
//	Transaction: 新增的交易紀錄 (Amount 為實際套用的金額)
func (a *Account) changeBalance(ref uuid.UUID, delta decimal.Decimal, at time.Time) Transaction {
	if a.kind == AccountTypeSavings && a.hasWithdrawn && delta.IsNegative() {
		delta = delta.Add(a.penaltyRate.Mul(delta))
	}

	a.balance = a.balance.Add(delta)
	tran := Transaction{
		Ref:     ref,
		At:      at,
		Amount:  delta,
		Balance: a.balance,
	}
	a.transactions = append(a.transactions, tran)

	if a.kind == AccountTypeSavings && delta.IsNegative() {
		a.hasWithdrawn = true
	}
	return tran
}

// CanWithdraw 檢查提領 amount 後帳戶是否仍符合自身規則
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	switch a.kind {
	case AccountTypeSavings:
		required := amount
		if a.hasWithdrawn {
			required = amount.Add(a.penaltyRate.Mul(amount))
		}
		return a.balance.GreaterThanOrEqual(required)
	case AccountTypeCredit:
		return a.balance.Sub(amount).GreaterThanOrEqual(a.creditLimit)
	default:
		return false
	}
}

// Interest 計算當下的利息 (僅供顯示，不會入帳)
// 信用帳戶為負債時回傳負值，代表應付的債務利息
func (a *Account) Interest() decimal.Decimal {
	switch a.kind {
	case AccountTypeSavings:
		return a.balance.Mul(ratio(a.rate))
	case AccountTypeCredit:
		positive, debt := decimal.Zero, decimal.Zero
		if a.balance.IsNegative() {
			debt = a.balance.Abs()
		} else {
			positive = a.balance
		}
		return positive.Mul(ratio(a.rate)).Sub(debt.Mul(ratio(a.debtRate)))
	default:
		return decimal.Zero
	}
}

// displayRate 信用帳戶負債時顯示債務利率
func (a *Account) displayRate() decimal.Decimal {
	if a.kind == AccountTypeCredit && a.balance.IsNegative() {
		return a.debtRate
	}
	return a.rate
}

// AccountInfo 帳戶的唯讀投影
type AccountInfo struct {
	ID       int64
	Type     AccountType
	Balance  decimal.Decimal
	Rate     decimal.Decimal
	Interest decimal.Decimal
}

func (i AccountInfo) String() string {
	return fmt.Sprintf("%d %s %s %s", i.ID, FormatAmount(i.Balance), i.Type, FormatRate(i.Rate))
}

// Info 回傳帳戶資訊
func (a *Account) Info() AccountInfo {
	return AccountInfo{
		ID:       a.id,
		Type:     a.kind,
		Balance:  a.balance,
		Rate:     a.displayRate(),
		Interest: a.Interest(),
	}
}

// ClosingSummary 帳戶關閉時的最終狀態，是帳戶關閉後唯一留下的紀錄
type ClosingSummary struct {
	ID       int64
	Type     AccountType
	Balance  decimal.Decimal
	Interest decimal.Decimal
}

func (s ClosingSummary) String() string {
	return fmt.Sprintf("%d %s %s %s", s.ID, FormatAmount(s.Balance), s.Type, FormatAmount(s.Interest))
}

// closingSummary 擷取關閉當下的資訊
func (a *Account) closingSummary() ClosingSummary {
	return ClosingSummary{
		ID:       a.id,
		Type:     a.kind,
		Balance:  a.balance,
		Interest: a.Interest(),
	}
}
