package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bank 是聚合根：擁有所有客戶 (依加入順序) 以及帳戶編號產生器
//
// Bank 本身不加鎖，同一時間只能有一個呼叫者；
// 併發存取由 memory adapter (MutexLedger / LMAXLedger) 負責序列化。
// 所有失敗的操作都不會改變任何狀態。
type Bank struct {
	customers []*Customer
	seq       *Sequence
	now       func() time.Time
	// appliedSeq 最後一筆套用過的 WAL 序號，隨快照保存
	appliedSeq int64
}

// Option 設定 Bank 的選項
type Option func(*Bank)

// WithClock 指定交易時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(b *Bank) {
		b.now = now
	}
}

// NewBank 建立空白的銀行，帳戶編號從 AccountIDBaseline 之後開始
func NewBank(opts ...Option) *Bank {
	b := &Bank{
		seq: NewSequence(AccountIDBaseline),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LastAccountID 最後一個已分配的帳戶編號
func (b *Bank) LastAccountID() int64 {
	return b.seq.Last()
}

// AppliedSeq 最後一筆套用過的指令序號 (Command.Seq)
// WAL 重放時序號不大於此值的指令已包含在狀態中，必須略過
func (b *Bank) AppliedSeq() int64 {
	return b.appliedSeq
}

// findCustomer 依身分證號線性搜尋
func (b *Bank) findCustomer(personalID string) (*Customer, int, bool) {
	for i, c := range b.customers {
		if c.personalID == personalID {
			return c, i, true
		}
	}
	return nil, -1, false
}

func (b *Bank) customer(personalID string) (*Customer, error) {
	c, _, ok := b.findCustomer(personalID)
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// account 先找客戶，再於客戶範圍內找帳戶
func (b *Bank) account(personalID string, accountID int64) (*Customer, *Account, error) {
	c, err := b.customer(personalID)
	if err != nil {
		return nil, nil, err
	}
	acc, ok := c.findAccount(accountID)
	if !ok {
		return nil, nil, ErrAccountNotFound
	}
	return c, acc, nil
}

// CreateCustomer 建立客戶，身分證號重複時回傳 ErrCustomerAlreadyExists
func (b *Bank) CreateCustomer(name, surname, personalID string) error {
	if _, _, ok := b.findCustomer(personalID); ok {
		return ErrCustomerAlreadyExists
	}
	b.customers = append(b.customers, newCustomer(name, surname, personalID))
	return nil
}

// Customer 取得客戶資料與其帳戶
func (b *Bank) Customer(personalID string) (CustomerInfo, error) {
	c, err := b.customer(personalID)
	if err != nil {
		return CustomerInfo{}, err
	}
	return c.info(), nil
}

// Customers 依加入順序列出所有客戶
func (b *Bank) Customers() []CustomerSummary {
	out := make([]CustomerSummary, 0, len(b.customers))
	for _, c := range b.customers {
		out = append(out, c.summary())
	}
	return out
}

// CustomerIndex 回傳客戶在清單中的位置
func (b *Bank) CustomerIndex(personalID string) (int, error) {
	_, idx, ok := b.findCustomer(personalID)
	if !ok {
		return -1, ErrCustomerNotFound
	}
	return idx, nil
}

// CustomerByIndex 依清單位置取得客戶
func (b *Bank) CustomerByIndex(index int) (CustomerInfo, error) {
	if index < 0 || index >= len(b.customers) {
		return CustomerInfo{}, ErrCustomerIndexOutOfRange
	}
	return b.customers[index].info(), nil
}

// RenameCustomer 更新非空白的姓名欄位
//
// 回傳:
//
//	bool: 是否有任一欄位被更新
//	error: 客戶不存在
func (b *Bank) RenameCustomer(name, surname, personalID string) (bool, error) {
	c, err := b.customer(personalID)
	if err != nil {
		return false, err
	}
	changed := false
	if name != "" {
		c.name = name
		changed = true
	}
	if surname != "" {
		c.surname = surname
		changed = true
	}
	return changed, nil
}

// DeleteCustomer 刪除客戶：先取得所有帳戶的關閉資訊，再關閉帳戶並移除客戶
func (b *Bank) DeleteCustomer(personalID string) (DeletionInfo, error) {
	c, idx, ok := b.findCustomer(personalID)
	if !ok {
		return DeletionInfo{}, ErrCustomerNotFound
	}
	info := DeletionInfo{
		Customer: c.summary(),
		Closed:   c.closingSummaries(),
	}
	c.closeAllAccounts()
	b.customers = append(b.customers[:idx], b.customers[idx+1:]...)
	return info, nil
}

// CreateSavingsAccount 替客戶開立儲蓄帳戶，回傳新帳戶編號
func (b *Bank) CreateSavingsAccount(personalID string) (int64, error) {
	c, err := b.customer(personalID)
	if err != nil {
		return 0, err
	}
	return c.createSavingsAccount(b.seq).id, nil
}

// CreateCreditAccount 替客戶開立信用帳戶，回傳新帳戶編號
func (b *Bank) CreateCreditAccount(personalID string) (int64, error) {
	c, err := b.customer(personalID)
	if err != nil {
		return 0, err
	}
	return c.createCreditAccount(b.seq).id, nil
}

// Deposit 存款，金額必須為正整數
func (b *Bank) Deposit(personalID string, accountID, amount int64) error {
	_, err := b.deposit(uuid.New(), b.now(), personalID, accountID, amount)
	return err
}

func (b *Bank) deposit(ref uuid.UUID, at time.Time, personalID string, accountID, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrAmountMustBePositive
	}
	_, acc, err := b.account(personalID, accountID)
	if err != nil {
		return Transaction{}, err
	}
	return acc.changeBalance(ref, decimal.NewFromInt(amount), at), nil
}

// Withdraw 提款，金額必須為正整數且帳戶需通過 CanWithdraw
func (b *Bank) Withdraw(personalID string, accountID, amount int64) error {
	_, err := b.withdraw(uuid.New(), b.now(), personalID, accountID, amount)
	return err
}

func (b *Bank) withdraw(ref uuid.UUID, at time.Time, personalID string, accountID, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrAmountMustBePositive
	}
	_, acc, err := b.account(personalID, accountID)
	if err != nil {
		return Transaction{}, err
	}
	value := decimal.NewFromInt(amount)
	if !acc.CanWithdraw(value) {
		return Transaction{}, ErrInsufficientFunds
	}
	return acc.changeBalance(ref, value.Neg(), at), nil
}

// CloseAccount 關閉帳戶並回傳關閉資訊，關閉後帳戶無法再被存取
func (b *Bank) CloseAccount(personalID string, accountID int64) (ClosingSummary, error) {
	c, acc, err := b.account(personalID, accountID)
	if err != nil {
		return ClosingSummary{}, err
	}
	return c.removeAccount(acc), nil
}

// Account 取得帳戶資訊
func (b *Bank) Account(personalID string, accountID int64) (AccountInfo, error) {
	_, acc, err := b.account(personalID, accountID)
	if err != nil {
		return AccountInfo{}, err
	}
	return acc.Info(), nil
}

// Transactions 取得帳戶交易紀錄 (副本)
func (b *Bank) Transactions(personalID string, accountID int64) ([]Transaction, error) {
	_, acc, err := b.account(personalID, accountID)
	if err != nil {
		return nil, err
	}
	return acc.Transactions(), nil
}

// AccountIDByIndex 依客戶帳戶清單的位置取得帳戶編號
func (b *Bank) AccountIDByIndex(personalID string, index int) (int64, error) {
	c, err := b.customer(personalID)
	if err != nil {
		return 0, err
	}
	return c.accountIDByIndex(index)
}

// lookupAccount 內部測試與快照使用，直接取得帳戶指標
func (b *Bank) lookupAccount(personalID string, accountID int64) (*Account, bool) {
	_, acc, err := b.account(personalID, accountID)
	return acc, err == nil
}
