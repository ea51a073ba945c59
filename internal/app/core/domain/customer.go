package domain

import "fmt"

// Customer 客戶，擁有自己的帳戶集合 (依建立順序)
type Customer struct {
	personalID string
	name       string
	surname    string
	accounts   []*Account
}

func newCustomer(name, surname, personalID string) *Customer {
	return &Customer{
		personalID: personalID,
		name:       name,
		surname:    surname,
	}
}

func (c *Customer) PersonalID() string { return c.personalID }
func (c *Customer) Name() string       { return c.name }
func (c *Customer) Surname() string    { return c.surname }

// createSavingsAccount 以預設參數開立儲蓄帳戶
func (c *Customer) createSavingsAccount(seq *Sequence) *Account {
	acc := newSavingsAccount(seq.Next())
	c.accounts = append(c.accounts, acc)
	return acc
}

// createCreditAccount 以預設參數開立信用帳戶
func (c *Customer) createCreditAccount(seq *Sequence) *Account {
	acc := newCreditAccount(seq.Next())
	c.accounts = append(c.accounts, acc)
	return acc
}

// findAccount 只在此客戶的帳戶中線性搜尋
func (c *Customer) findAccount(id int64) (*Account, bool) {
	for _, acc := range c.accounts {
		if acc.id == id {
			return acc, true
		}
	}
	return nil, false
}

// removeAccount 從帳戶集合移除並回傳關閉資訊
func (c *Customer) removeAccount(target *Account) ClosingSummary {
	summary := target.closingSummary()
	for i, acc := range c.accounts {
		if acc == target {
			c.accounts = append(c.accounts[:i], c.accounts[i+1:]...)
			break
		}
	}
	return summary
}

// closeAllAccounts 無條件清空帳戶，呼叫端需自行先取得關閉資訊
func (c *Customer) closeAllAccounts() {
	c.accounts = nil
}

// closingSummaries 依順序回傳所有帳戶的關閉資訊
func (c *Customer) closingSummaries() []ClosingSummary {
	out := make([]ClosingSummary, 0, len(c.accounts))
	for _, acc := range c.accounts {
		out = append(out, acc.closingSummary())
	}
	return out
}

func (c *Customer) accountIDByIndex(index int) (int64, error) {
	if index < 0 || index >= len(c.accounts) {
		return 0, ErrAccountIndexOutOfRange
	}
	return c.accounts[index].id, nil
}

// CustomerSummary 客戶基本資料
type CustomerSummary struct {
	PersonalID string
	Name       string
	Surname    string
}

func (s CustomerSummary) String() string {
	return fmt.Sprintf("%s %s %s", s.PersonalID, s.Name, s.Surname)
}

// CustomerInfo 客戶資料與其所有帳戶
type CustomerInfo struct {
	CustomerSummary
	Accounts []AccountInfo
}

// Lines 第一行為客戶資料，之後每行一個帳戶
func (i CustomerInfo) Lines() []string {
	lines := make([]string, 0, len(i.Accounts)+1)
	lines = append(lines, i.CustomerSummary.String())
	for _, acc := range i.Accounts {
		lines = append(lines, acc.String())
	}
	return lines
}

// DeletionInfo 刪除客戶時回傳的資訊
type DeletionInfo struct {
	Customer CustomerSummary
	Closed   []ClosingSummary
}

func (c *Customer) summary() CustomerSummary {
	return CustomerSummary{
		PersonalID: c.personalID,
		Name:       c.name,
		Surname:    c.surname,
	}
}

func (c *Customer) info() CustomerInfo {
	accounts := make([]AccountInfo, 0, len(c.accounts))
	for _, acc := range c.accounts {
		accounts = append(accounts, acc.Info())
	}
	return CustomerInfo{
		CustomerSummary: c.summary(),
		Accounts:        accounts,
	}
}
