package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// ErrNoSnapshotStore 未設定快照儲存
var ErrNoSnapshotStore = errors.New("no snapshot store configured")

// errUnexpectedOutcome Ledger 回報成功但結果缺少該指令應有的欄位
var errUnexpectedOutcome = errors.New("ledger returned an incomplete outcome")

// Metrics 記錄每次操作的結果
type Metrics interface {
	ObserveOperation(operation, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string) {}

type refKey struct{}

// WithRef 在 context 中帶入外部追蹤號，相同追蹤號的指令只會執行一次
func WithRef(ctx context.Context, ref uuid.UUID) context.Context {
	return context.WithValue(ctx, refKey{}, ref)
}

func refFrom(ctx context.Context) uuid.UUID {
	if ref, ok := ctx.Value(refKey{}).(uuid.UUID); ok && ref != uuid.Nil {
		return ref
	}
	return uuid.New()
}

// CoreUseCase 是核心業務邏輯層，也是邊界層 (gRPC / CLI) 唯一使用的 API
type CoreUseCase struct {
	ledger  Ledger
	store   SnapshotStore
	metrics Metrics
	logger  *slog.Logger
}

// Option 設定 CoreUseCase
type Option func(*CoreUseCase)

func WithSnapshotStore(store SnapshotStore) Option {
	return func(c *CoreUseCase) { c.store = store }
}

func WithMetrics(m Metrics) Option {
	return func(c *CoreUseCase) { c.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *CoreUseCase) { c.logger = logger }
}

func NewCoreUseCase(ledger Ledger, opts ...Option) *CoreUseCase {
	c := &CoreUseCase{
		ledger:  ledger,
		metrics: noopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadBank 由快照建立 Bank；尚無快照時回傳空白 Bank
func LoadBank(ctx context.Context, store SnapshotStore, opts ...domain.Option) (*domain.Bank, error) {
	bank := domain.NewBank(opts...)
	snap, err := store.Load(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		return bank, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSnapshotStoreFailed, err)
	}
	if err := bank.Restore(snap); err != nil {
		return nil, err
	}
	return bank, nil
}

// observe 記錄 metrics 與 log
func (c *CoreUseCase) observe(ctx context.Context, operation string, err error, attrs ...any) {
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	c.metrics.ObserveOperation(operation, outcome)

	attrs = append(attrs, "operation", operation, "outcome", outcome)
	switch kind := domain.KindOf(err); {
	case err == nil:
		c.logger.DebugContext(ctx, "operation completed", attrs...)
	case kind == domain.KindPersistence || kind == domain.KindUnknown:
		c.logger.ErrorContext(ctx, "operation failed", append(attrs, "error", err)...)
	default:
		c.logger.InfoContext(ctx, "operation rejected", append(attrs, "error", err)...)
	}
}

func (c *CoreUseCase) apply(ctx context.Context, cmd *domain.Command) (domain.Outcome, error) {
	cmd.Ref = refFrom(ctx)
	out, err := c.ledger.Apply(ctx, cmd)
	c.observe(ctx, cmd.Type.String(), err, "ref", cmd.Ref.String(), "personal_id", cmd.PersonalID)
	return out, err
}

func (c *CoreUseCase) view(ctx context.Context, operation string, fn func(bank *domain.Bank) error) error {
	err := c.ledger.View(ctx, fn)
	c.observe(ctx, operation, err)
	return err
}

// CreateCustomer 建立客戶
func (c *CoreUseCase) CreateCustomer(ctx context.Context, name, surname, personalID string) error {
	_, err := c.apply(ctx, &domain.Command{
		Type:       domain.CommandCreateCustomer,
		PersonalID: personalID,
		Name:       name,
		Surname:    surname,
	})
	return err
}

// RenameCustomer 修改客戶姓名，回傳是否有欄位被更新
func (c *CoreUseCase) RenameCustomer(ctx context.Context, name, surname, personalID string) (bool, error) {
	out, err := c.apply(ctx, &domain.Command{
		Type:       domain.CommandRenameCustomer,
		PersonalID: personalID,
		Name:       name,
		Surname:    surname,
	})
	return out.Changed, err
}

// DeleteCustomer 刪除客戶與其所有帳戶
func (c *CoreUseCase) DeleteCustomer(ctx context.Context, personalID string) (domain.DeletionInfo, error) {
	out, err := c.apply(ctx, &domain.Command{
		Type:       domain.CommandDeleteCustomer,
		PersonalID: personalID,
	})
	if err != nil {
		return domain.DeletionInfo{}, err
	}
	if out.Deletion == nil {
		return domain.DeletionInfo{}, fmt.Errorf("%w: delete customer %s", errUnexpectedOutcome, personalID)
	}
	return *out.Deletion, nil
}

// CreateSavingsAccount 開立儲蓄帳戶，回傳帳戶編號
func (c *CoreUseCase) CreateSavingsAccount(ctx context.Context, personalID string) (int64, error) {
	out, err := c.apply(ctx, &domain.Command{
		Type:       domain.CommandOpenSavings,
		PersonalID: personalID,
	})
	return out.AccountID, err
}

// CreateCreditAccount 開立信用帳戶，回傳帳戶編號
func (c *CoreUseCase) CreateCreditAccount(ctx context.Context, personalID string) (int64, error) {
	out, err := c.apply(ctx, &domain.Command{
		Type:       domain.CommandOpenCredit,
		PersonalID: personalID,
	})
	return out.AccountID, err
}

// Deposit 存款，回傳存款後的帳戶狀態
func (c *CoreUseCase) Deposit(ctx context.Context, personalID string, accountID, amount int64) (domain.AccountInfo, error) {
	return c.movement(ctx, &domain.Command{
		Type:       domain.CommandDeposit,
		PersonalID: personalID,
		AccountID:  accountID,
		Amount:     amount,
	})
}

// Withdraw 提款，回傳提款後的帳戶狀態
func (c *CoreUseCase) Withdraw(ctx context.Context, personalID string, accountID, amount int64) (domain.AccountInfo, error) {
	return c.movement(ctx, &domain.Command{
		Type:       domain.CommandWithdraw,
		PersonalID: personalID,
		AccountID:  accountID,
		Amount:     amount,
	})
}

// movement 帳戶狀態取自指令結果，與該筆交易屬於同一次套用
func (c *CoreUseCase) movement(ctx context.Context, cmd *domain.Command) (domain.AccountInfo, error) {
	out, err := c.apply(ctx, cmd)
	if err != nil {
		return domain.AccountInfo{}, err
	}
	if out.Account == nil {
		return domain.AccountInfo{}, fmt.Errorf("%w: %s account %d", errUnexpectedOutcome, cmd.Type, cmd.AccountID)
	}
	return *out.Account, nil
}

// CloseAccount 關閉帳戶並回傳關閉資訊
func (c *CoreUseCase) CloseAccount(ctx context.Context, personalID string, accountID int64) (domain.ClosingSummary, error) {
	out, err := c.apply(ctx, &domain.Command{
		Type:       domain.CommandCloseAccount,
		PersonalID: personalID,
		AccountID:  accountID,
	})
	if err != nil {
		return domain.ClosingSummary{}, err
	}
	if out.Closed == nil {
		return domain.ClosingSummary{}, fmt.Errorf("%w: close account %d", errUnexpectedOutcome, accountID)
	}
	return *out.Closed, nil
}

func (c *CoreUseCase) Customer(ctx context.Context, personalID string) (info domain.CustomerInfo, err error) {
	err = c.view(ctx, "get_customer", func(bank *domain.Bank) error {
		info, err = bank.Customer(personalID)
		return err
	})
	return info, err
}

func (c *CoreUseCase) Customers(ctx context.Context) (list []domain.CustomerSummary, err error) {
	err = c.view(ctx, "list_customers", func(bank *domain.Bank) error {
		list = bank.Customers()
		return nil
	})
	return list, err
}

func (c *CoreUseCase) CustomerIndex(ctx context.Context, personalID string) (idx int, err error) {
	err = c.view(ctx, "find_customer_index", func(bank *domain.Bank) error {
		idx, err = bank.CustomerIndex(personalID)
		return err
	})
	return idx, err
}

func (c *CoreUseCase) CustomerByIndex(ctx context.Context, index int) (info domain.CustomerInfo, err error) {
	err = c.view(ctx, "get_customer_by_index", func(bank *domain.Bank) error {
		info, err = bank.CustomerByIndex(index)
		return err
	})
	return info, err
}

func (c *CoreUseCase) Account(ctx context.Context, personalID string, accountID int64) (info domain.AccountInfo, err error) {
	err = c.view(ctx, "get_account", func(bank *domain.Bank) error {
		info, err = bank.Account(personalID, accountID)
		return err
	})
	return info, err
}

func (c *CoreUseCase) Transactions(ctx context.Context, personalID string, accountID int64) (trans []domain.Transaction, err error) {
	err = c.view(ctx, "get_transactions", func(bank *domain.Bank) error {
		trans, err = bank.Transactions(personalID, accountID)
		return err
	})
	return trans, err
}

func (c *CoreUseCase) AccountIDByIndex(ctx context.Context, personalID string, index int) (id int64, err error) {
	err = c.view(ctx, "get_account_id_by_index", func(bank *domain.Bank) error {
		id, err = bank.AccountIDByIndex(personalID, index)
		return err
	})
	return id, err
}

// ExportTransactions 將帳戶交易紀錄附加到 target，回傳寫出的行
func (c *CoreUseCase) ExportTransactions(ctx context.Context, exporter TransactionExporter, target, personalID string, accountID int64) ([]string, error) {
	trans, err := c.Transactions(ctx, personalID, accountID)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(trans))
	for _, t := range trans {
		lines = append(lines, t.String())
	}
	if err := exporter.Append(ctx, target, lines); err != nil {
		err = fmt.Errorf("export transactions to %s: %w", target, err)
		c.observe(ctx, "export_transactions", err)
		return nil, err
	}
	c.observe(ctx, "export_transactions", nil, "target", target, "lines", len(lines))
	return lines, nil
}

// Checkpoint 將目前狀態寫入快照並清空 WAL
func (c *CoreUseCase) Checkpoint(ctx context.Context) error {
	if c.store == nil {
		return ErrNoSnapshotStore
	}
	err := c.ledger.Checkpoint(ctx, func(snap domain.Snapshot) error {
		if err := c.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrSnapshotStoreFailed, err)
		}
		return nil
	})
	c.observe(ctx, "checkpoint", err)
	return err
}
