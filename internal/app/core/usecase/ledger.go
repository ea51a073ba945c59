package usecase

import (
	"context"
	"errors"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// ErrSnapshotNotFound 尚未儲存過任何快照
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Ledger 是帳務系統的介面，負責序列化對 domain.Bank 的存取
type Ledger interface {
	// 不再分 Deposit/Withdraw，直接看 cmd.Type 決定
	Apply(ctx context.Context, cmd *domain.Command) (domain.Outcome, error)
	// View 唯讀存取，fn 不得修改 bank
	View(ctx context.Context, fn func(bank *domain.Bank) error) error
	// Checkpoint 在獨佔狀態下取得快照交給 save，成功後清空 WAL
	Checkpoint(ctx context.Context, save func(domain.Snapshot) error) error
}

// SnapshotStore 快照的持久化介面，快照必須整筆寫入或整筆失敗
type SnapshotStore interface {
	// Load 讀取最新快照，沒有快照時回傳 ErrSnapshotNotFound
	Load(ctx context.Context) (domain.Snapshot, error)
	// Save 覆寫快照
	Save(ctx context.Context, snap domain.Snapshot) error
}

// TransactionExporter 交易紀錄的文字匯出/匯入
type TransactionExporter interface {
	// Append 將多行文字附加到 target，不存在則建立
	Append(ctx context.Context, target string, lines []string) error
	// Read 讀回 target 的所有行，僅供顯示
	Read(ctx context.Context, target string) ([]string, error)
}
