package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// ErrLedgerStopped 核心引擎已停止，不再接受請求
var ErrLedgerStopped = errors.New("ledger stopped")

// Option 設定 Ledger
type Option func(*journal)

// WithClock 指定指令時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(j *journal) { j.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(j *journal) { j.logger = logger }
}

// journal 兩種 Ledger 共用的核心狀態，呼叫端負責序列化存取
//
// 結構:
//
//	bank: 記憶體中的銀行狀態
//	processed: 已處理過的指令 (Ref -> 指令內容與結果)
//	wal: Write-Ahead Log 實例，nil 表示不落地
//	seq: 最後分配的 WAL 序號
type journal struct {
	bank      *domain.Bank
	processed map[uuid.UUID]processedCommand
	wal       *wal.WAL
	seq       int64
	now       func() time.Time
	logger    *slog.Logger
}

// processedCommand 保留原始指令以辨識 Ref 被挪用
type processedCommand struct {
	cmd domain.Command
	out domain.Outcome
}

func newJournal(bank *domain.Bank, w *wal.WAL, opts []Option) *journal {
	j := &journal{
		bank:      bank,
		processed: make(map[uuid.UUID]processedCommand),
		wal:       w,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// recoverFromWAL 從 WAL 檔案重放指令
// 序號不大於快照 AppliedSeq 的指令已在快照中 (存檔後未清空 WAL)，直接略過。
// 重放時的業務錯誤與當初執行時相同，直接略過；只有 WAL 損毀才回傳錯誤
//
// 回傳:
//
//	error: WAL 讀取或解析錯誤
func (j *journal) recoverFromWAL() error {
	j.seq = j.bank.AppliedSeq()
	if j.wal == nil {
		return nil
	}
	entries, replayed, skipped, rejected := 0, 0, 0, 0
	err := j.wal.ReadAll(func(jsonRaw []byte) error {
		entries++
		var cmd domain.Command
		if err := json.Unmarshal(jsonRaw, &cmd); err != nil {
			return fmt.Errorf("decode wal entry %d: %w", entries, err)
		}
		if cmd.Seq <= j.bank.AppliedSeq() {
			skipped++
			return nil
		}
		replayed++
		if _, err := j.run(&cmd); err != nil {
			rejected++
		}
		return nil
	})
	if err != nil {
		return err
	}
	j.seq = j.bank.AppliedSeq()
	j.logger.Info("wal replayed",
		"commands", replayed,
		"skipped", skipped,
		"rejected", rejected,
		"applied_seq", j.seq,
		"last_account_id", j.bank.LastAccountID())
	return nil
}

// lookup 查詢 Ref 是否已處理過
//
// 回傳:
//
//	domain.Outcome: 第一次執行的結果
//	bool: 是否已處理過
//	error: Ref 曾用於內容不同的指令時回傳 domain.ErrRefConflict
func (j *journal) lookup(cmd *domain.Command) (domain.Outcome, bool, error) {
	if cmd.Ref == uuid.Nil {
		return domain.Outcome{}, false, nil
	}
	prev, ok := j.processed[cmd.Ref]
	if !ok {
		return domain.Outcome{}, false, nil
	}
	if !prev.cmd.SameRequest(cmd) {
		return domain.Outcome{}, false, fmt.Errorf("%w: ref %s was %s, got %s",
			domain.ErrRefConflict, cmd.Ref, prev.cmd.Type, cmd.Type)
	}
	return prev.out, true, nil
}

// execute 執行一筆新指令: 冪等檢查 -> 寫入 WAL -> 套用到 Bank
//
// 參數:
//
//	cmd: 指令，At 為 0 時以目前時間填入
//
// 回傳:
//
//	domain.Outcome: 執行結果 (重複的 Ref 回傳第一次的結果)
//	error: WAL 錯誤、Ref 衝突或業務錯誤
func (j *journal) execute(cmd *domain.Command) (domain.Outcome, error) {
	if out, ok, err := j.lookup(cmd); err != nil || ok {
		return out, err
	}
	if cmd.At == 0 {
		cmd.At = j.now().UnixNano()
	}
	// 序號一經分配即不再重用，寫入失敗只會留下空號
	j.seq++
	cmd.Seq = j.seq

	// 1. 寫入 WAL (Critical Path)
	if j.wal != nil {
		if err := j.wal.Write(cmd); err != nil {
			return domain.Outcome{}, fmt.Errorf("%w: %w", domain.ErrWALWriteFailed, err)
		}
		// 刷入硬碟
		if err := j.wal.Flush(); err != nil {
			return domain.Outcome{}, fmt.Errorf("%w: %w", domain.ErrWALWriteFailed, err)
		}
	}

	// 2. 核心指令分發
	return j.run(cmd)
}

// run 套用指令 (不寫入 WAL)，成功才記錄 Ref
func (j *journal) run(cmd *domain.Command) (domain.Outcome, error) {
	if out, ok, err := j.lookup(cmd); err != nil || ok {
		return out, err
	}
	out, err := j.bank.Apply(cmd)
	if err != nil {
		return domain.Outcome{}, err
	}
	if cmd.Ref != uuid.Nil {
		j.processed[cmd.Ref] = processedCommand{cmd: *cmd, out: out}
	}
	return out, nil
}

// checkpoint 取得快照交給 save，成功後清空 WAL
// 快照帶有 AppliedSeq，若存檔後來不及清空 WAL，重啟時會略過已在快照中的指令
func (j *journal) checkpoint(save func(domain.Snapshot) error) error {
	snap := j.bank.Snapshot()
	if err := save(snap); err != nil {
		return err
	}
	if j.wal != nil {
		if err := j.wal.Truncate(); err != nil {
			return fmt.Errorf("%w: truncate: %w", domain.ErrWALWriteFailed, err)
		}
	}
	j.logger.Info("checkpoint saved", "customers", len(snap.Customers), "last_account_id", snap.LastAccountID)
	return nil
}
