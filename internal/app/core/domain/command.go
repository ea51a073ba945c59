package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommandType 會改變狀態的指令類型
type CommandType uint8

const (
	// 建立客戶
	CommandCreateCustomer CommandType = 1
	// 修改客戶姓名
	CommandRenameCustomer CommandType = 2
	// 刪除客戶 (連同帳戶)
	CommandDeleteCustomer CommandType = 3
	// 開立儲蓄帳戶
	CommandOpenSavings CommandType = 4
	// 開立信用帳戶
	CommandOpenCredit CommandType = 5
	// 存款
	CommandDeposit CommandType = 6
	// 提款
	CommandWithdraw CommandType = 7
	// 關閉帳戶
	CommandCloseAccount CommandType = 8
)

func (t CommandType) String() string {
	switch t {
	case CommandCreateCustomer:
		return "create_customer"
	case CommandRenameCustomer:
		return "rename_customer"
	case CommandDeleteCustomer:
		return "delete_customer"
	case CommandOpenSavings:
		return "open_savings"
	case CommandOpenCredit:
		return "open_credit"
	case CommandDeposit:
		return "deposit"
	case CommandWithdraw:
		return "withdraw"
	case CommandCloseAccount:
		return "close_account"
	default:
		return "unknown"
	}
}

// Command 一筆會改變 Bank 狀態的指令，也是寫入 WAL 的單位
type Command struct {
	// Ref: 外部追蹤號 (UUID)，用於冪等檢查
	Ref uuid.UUID `json:"ref"`
	// Seq: WAL 序號，由 Ledger 在寫入 WAL 前依序編號
	Seq int64 `json:"seq,omitempty"`
	// At: 指令時間 (UnixNano)，由 Ledger 在寫入 WAL 前填入，重放時沿用
	At         int64       `json:"at"`
	Type       CommandType `json:"type"`
	PersonalID string      `json:"personal_id"`
	Name       string      `json:"name,omitempty"`
	Surname    string      `json:"surname,omitempty"`
	AccountID  int64       `json:"account_id,omitempty"`
	Amount     int64       `json:"amount,omitempty"`
}

// SameRequest 判斷兩筆指令的業務內容是否相同 (不比較 Ref、Seq 與 At)
func (c *Command) SameRequest(other *Command) bool {
	return c.Type == other.Type &&
		c.PersonalID == other.PersonalID &&
		c.Name == other.Name &&
		c.Surname == other.Surname &&
		c.AccountID == other.AccountID &&
		c.Amount == other.Amount
}

// Time 回傳指令時間
func (c *Command) Time() time.Time {
	return time.Unix(0, c.At)
}

// Outcome 指令執行結果，依指令類型只會填入對應欄位
type Outcome struct {
	AccountID   int64
	Changed     bool
	Transaction *Transaction
	// Account 存提款後的帳戶狀態，與交易在同一次套用中取得
	Account  *AccountInfo
	Closed   *ClosingSummary
	Deletion *DeletionInfo
}

// Apply 執行一筆指令
//
// 參數:
//
//	cmd: 指令，At 為交易時間；Seq 大於 AppliedSeq 時更新 AppliedSeq (不論成敗)
//
// 回傳:
//
//	Outcome: 執行結果
//	error: 業務錯誤 (失敗時狀態不變)
func (b *Bank) Apply(cmd *Command) (Outcome, error) {
	if cmd.Seq > b.appliedSeq {
		b.appliedSeq = cmd.Seq
	}
	switch cmd.Type {
	case CommandCreateCustomer:
		return Outcome{}, b.CreateCustomer(cmd.Name, cmd.Surname, cmd.PersonalID)
	case CommandRenameCustomer:
		changed, err := b.RenameCustomer(cmd.Name, cmd.Surname, cmd.PersonalID)
		return Outcome{Changed: changed}, err
	case CommandDeleteCustomer:
		info, err := b.DeleteCustomer(cmd.PersonalID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Deletion: &info}, nil
	case CommandOpenSavings:
		id, err := b.CreateSavingsAccount(cmd.PersonalID)
		return Outcome{AccountID: id}, err
	case CommandOpenCredit:
		id, err := b.CreateCreditAccount(cmd.PersonalID)
		return Outcome{AccountID: id}, err
	case CommandDeposit:
		tran, err := b.deposit(cmd.Ref, cmd.Time(), cmd.PersonalID, cmd.AccountID, cmd.Amount)
		if err != nil {
			return Outcome{}, err
		}
		return b.movementOutcome(cmd, tran), nil
	case CommandWithdraw:
		tran, err := b.withdraw(cmd.Ref, cmd.Time(), cmd.PersonalID, cmd.AccountID, cmd.Amount)
		if err != nil {
			return Outcome{}, err
		}
		return b.movementOutcome(cmd, tran), nil
	case CommandCloseAccount:
		summary, err := b.CloseAccount(cmd.PersonalID, cmd.AccountID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{AccountID: cmd.AccountID, Closed: &summary}, nil
	default:
		return Outcome{}, ErrUnknownCommand
	}
}

func (b *Bank) movementOutcome(cmd *Command, tran Transaction) Outcome {
	out := Outcome{AccountID: cmd.AccountID, Transaction: &tran}
	if acc, ok := b.lookupAccount(cmd.PersonalID, cmd.AccountID); ok {
		info := acc.Info()
		out.Account = &info
	}
	return out
}
