package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// MutexLedger 是一個使用 Mutex 實現的帳本
//
// 結構:
//
//	journal: Bank 狀態、已處理指令與 WAL
//	mu: 寫入指令取得寫鎖，查詢取得讀鎖
type MutexLedger struct {
	journal *journal
	mu      sync.RWMutex
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	bank: 由快照還原的初始狀態
//	wal: Write-Ahead Log 實例 (可為 nil)
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexLedger(bank *domain.Bank, wal *wal.WAL, opts ...Option) (*MutexLedger, error) {
	ledger := &MutexLedger{
		journal: newJournal(bank, wal, opts),
	}
	if err := ledger.journal.recoverFromWAL(); err != nil {
		return nil, err
	}
	return ledger, nil
}

// Apply 處理指令 (Mutex Lock)
//
// 參數:
//
//	ctx: 上下文
//	cmd: 指令
//
// 回傳:
//
//	domain.Outcome: 執行結果
//	error: 處理錯誤
func (m *MutexLedger) Apply(ctx context.Context, cmd *domain.Command) (domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.journal.execute(cmd)
}

// View 在讀鎖下查詢 Bank
func (m *MutexLedger) View(ctx context.Context, fn func(bank *domain.Bank) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.journal.bank)
}

// Checkpoint 暫停所有寫入，存檔後清空 WAL
func (m *MutexLedger) Checkpoint(ctx context.Context, save func(domain.Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.journal.checkpoint(save)
}

var _ usecase.Ledger = (*MutexLedger)(nil)
