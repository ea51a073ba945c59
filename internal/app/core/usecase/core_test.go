package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/file"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

const adaID = "18151210-1234"

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) ObserveOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[operation+"/"+outcome]++
}

func (m *fakeMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

type fakeStore struct {
	snap    *domain.Snapshot
	loadErr error
	saveErr error
}

func (s *fakeStore) Load(context.Context) (domain.Snapshot, error) {
	if s.loadErr != nil {
		return domain.Snapshot{}, s.loadErr
	}
	if s.snap == nil {
		return domain.Snapshot{}, usecase.ErrSnapshotNotFound
	}
	return *s.snap, nil
}

func (s *fakeStore) Save(_ context.Context, snap domain.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snap = &snap
	return nil
}

type failingExporter struct{}

func (failingExporter) Append(context.Context, string, []string) error { return assert.AnError }
func (failingExporter) Read(context.Context, string) ([]string, error) { return nil, assert.AnError }

func newCore(t *testing.T, opts ...usecase.Option) (*usecase.CoreUseCase, *fakeMetrics) {
	t.Helper()
	ledger, err := memory.NewMutexLedger(domain.NewBank(), nil)
	require.NoError(t, err)
	metrics := &fakeMetrics{}
	opts = append([]usecase.Option{
		usecase.WithMetrics(metrics),
		usecase.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return usecase.NewCoreUseCase(ledger, opts...), metrics
}

func TestCoreUseCase_Flow(t *testing.T) {
	ctx := context.Background()
	core, metrics := newCore(t)

	require.NoError(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID))
	id, err := core.CreateSavingsAccount(ctx, adaID)
	require.NoError(t, err)
	after, err := core.Deposit(ctx, adaID, id, 500)
	require.NoError(t, err)
	assert.Equal(t, "500", after.Balance.String())
	after, err = core.Withdraw(ctx, adaID, id, 400)
	require.NoError(t, err)
	assert.Equal(t, "100", after.Balance.String())
	_, err = core.Withdraw(ctx, adaID, id, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	after, err = core.Withdraw(ctx, adaID, id, 50)
	require.NoError(t, err)

	info, err := core.Account(ctx, adaID, id)
	require.NoError(t, err)
	assert.Equal(t, "49", info.Balance.String())
	assert.Equal(t, info.Balance.String(), after.Balance.String())
	assert.Equal(t, id, after.ID)

	idx, err := core.CustomerIndex(ctx, adaID)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	byIdx, err := core.CustomerByIndex(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byIdx.Name)
	accID, err := core.AccountIDByIndex(ctx, adaID, 0)
	require.NoError(t, err)
	assert.Equal(t, id, accID)

	assert.Equal(t, 1, metrics.count("deposit/ok"))
	assert.Equal(t, 2, metrics.count("withdraw/ok"))
	assert.Equal(t, 1, metrics.count("withdraw/insufficient_funds"))
	assert.Equal(t, 1, metrics.count("get_account/ok"))
}

func TestCoreUseCase_CustomerOps(t *testing.T) {
	ctx := context.Background()
	core, metrics := newCore(t)

	require.NoError(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID))
	assert.ErrorIs(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID), domain.ErrCustomerAlreadyExists)
	assert.Equal(t, 1, metrics.count("create_customer/duplicate_key"))

	changed, err := core.RenameCustomer(ctx, "Augusta", "", adaID)
	require.NoError(t, err)
	assert.True(t, changed)

	list, err := core.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, adaID+" Augusta Lovelace", list[0].String())

	_, err = core.CreateCreditAccount(ctx, adaID)
	require.NoError(t, err)
	deleted, err := core.DeleteCustomer(ctx, adaID)
	require.NoError(t, err)
	assert.Len(t, deleted.Closed, 1)

	_, err = core.Customer(ctx, adaID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	_, err = core.DeleteCustomer(ctx, adaID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCoreUseCase_CloseAccount(t *testing.T) {
	ctx := context.Background()
	core, _ := newCore(t)
	require.NoError(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID))
	id, err := core.CreateCreditAccount(ctx, adaID)
	require.NoError(t, err)
	_, err = core.Withdraw(ctx, adaID, id, 1000)
	require.NoError(t, err)

	summary, err := core.CloseAccount(ctx, adaID, id)
	require.NoError(t, err)
	assert.Equal(t, "-1000", summary.Balance.String())
	assert.Equal(t, "-50", summary.Interest.String())

	_, err = core.CloseAccount(ctx, adaID, id)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCoreUseCase_WithRefIsIdempotent(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	require.NoError(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID))
	id, err := core.CreateSavingsAccount(ctx, adaID)
	require.NoError(t, err)

	refCtx := usecase.WithRef(ctx, uuid.New())
	first, err := core.Deposit(refCtx, adaID, id, 100)
	require.NoError(t, err)
	second, err := core.Deposit(refCtx, adaID, id, 100)
	require.NoError(t, err)
	assert.Equal(t, "100", second.Balance.String())
	assert.Equal(t, first.Balance.String(), second.Balance.String())

	trans, err := core.Transactions(ctx, adaID, id)
	require.NoError(t, err)
	assert.Len(t, trans, 1)
}

func TestCoreUseCase_RefReusedForDifferentOperation(t *testing.T) {
	core, metrics := newCore(t)
	ctx := context.Background()
	refCtx := usecase.WithRef(ctx, uuid.New())

	require.NoError(t, core.CreateCustomer(refCtx, "Ada", "Lovelace", adaID))
	id, err := core.CreateSavingsAccount(ctx, adaID)
	require.NoError(t, err)

	// 相同追蹤號用於其他指令時不可回傳第一次的結果
	require.NotPanics(t, func() {
		_, err = core.CloseAccount(refCtx, adaID, id)
	})
	assert.ErrorIs(t, err, domain.ErrRefConflict)
	assert.Equal(t, domain.KindRefConflict, domain.KindOf(err))

	require.NotPanics(t, func() {
		_, err = core.DeleteCustomer(refCtx, adaID)
	})
	assert.ErrorIs(t, err, domain.ErrRefConflict)

	// 同一指令類型但內容不同也視為衝突
	depositRef := usecase.WithRef(ctx, uuid.New())
	_, err = core.Deposit(depositRef, adaID, id, 100)
	require.NoError(t, err)
	_, err = core.Deposit(depositRef, adaID, id, 200)
	assert.ErrorIs(t, err, domain.ErrRefConflict)
	_, err = core.Withdraw(depositRef, adaID, id, 100)
	assert.ErrorIs(t, err, domain.ErrRefConflict)

	info, err := core.Customer(ctx, adaID)
	require.NoError(t, err)
	require.Len(t, info.Accounts, 1)
	assert.Equal(t, "100", info.Accounts[0].Balance.String())
	assert.Equal(t, 1, metrics.count("close_account/ref_conflict"))
	assert.Equal(t, 1, metrics.count("delete_customer/ref_conflict"))
	assert.Equal(t, 1, metrics.count("deposit/ref_conflict"))
	assert.Equal(t, 1, metrics.count("withdraw/ref_conflict"))
}

func TestCoreUseCase_Checkpoint(t *testing.T) {
	ctx := context.Background()

	core, _ := newCore(t)
	assert.ErrorIs(t, core.Checkpoint(ctx), usecase.ErrNoSnapshotStore)

	store := &fakeStore{}
	core, metrics := newCore(t, usecase.WithSnapshotStore(store))
	require.NoError(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID))
	require.NoError(t, core.Checkpoint(ctx))
	require.NotNil(t, store.snap)
	assert.Len(t, store.snap.Customers, 1)

	store.saveErr = assert.AnError
	err := core.Checkpoint(ctx)
	assert.ErrorIs(t, err, domain.ErrSnapshotStoreFailed)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
	assert.Equal(t, 1, metrics.count("checkpoint/persistence"))
}

func TestLoadBank(t *testing.T) {
	ctx := context.Background()

	bank, err := usecase.LoadBank(ctx, &fakeStore{})
	require.NoError(t, err)
	assert.Empty(t, bank.Customers())
	assert.Equal(t, domain.AccountIDBaseline, bank.LastAccountID())

	src := domain.NewBank()
	require.NoError(t, src.CreateCustomer("Ada", "Lovelace", adaID))
	_, err = src.CreateSavingsAccount(adaID)
	require.NoError(t, err)
	snap := src.Snapshot()
	bank, err = usecase.LoadBank(ctx, &fakeStore{snap: &snap})
	require.NoError(t, err)
	assert.Equal(t, int64(1001), bank.LastAccountID())

	_, err = usecase.LoadBank(ctx, &fakeStore{loadErr: assert.AnError})
	assert.ErrorIs(t, err, domain.ErrSnapshotStoreFailed)

	snap.Version = 99
	_, err = usecase.LoadBank(ctx, &fakeStore{snap: &snap})
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestCoreUseCase_ExportTransactions(t *testing.T) {
	ctx := context.Background()
	core, _ := newCore(t)
	require.NoError(t, core.CreateCustomer(ctx, "Ada", "Lovelace", adaID))
	id, err := core.CreateSavingsAccount(ctx, adaID)
	require.NoError(t, err)
	_, err = core.Deposit(ctx, adaID, id, 500)
	require.NoError(t, err)
	_, err = core.Withdraw(ctx, adaID, id, 100)
	require.NoError(t, err)

	exporter := file.NewTextExporter()
	target := filepath.Join(t.TempDir(), "transaktioner.txt")
	lines, err := core.ExportTransactions(ctx, exporter, target, adaID, id)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "500,00 kr Balance: 500,00 kr")

	read, err := exporter.Read(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, lines, read)

	_, err = core.ExportTransactions(ctx, failingExporter{}, target, adaID, id)
	assert.ErrorIs(t, err, assert.AnError)
	_, err = core.ExportTransactions(ctx, exporter, target, adaID, 9999)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
