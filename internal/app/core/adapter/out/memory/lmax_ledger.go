package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// ledgerRequest 請求包裝channel，讓呼叫端可以等待結果
// cmd 與 fn 只會有一個非 nil
type ledgerRequest struct {
	cmd    *domain.Command
	fn     func(bank *domain.Bank) error
	result chan ledgerResult
}

type ledgerResult struct {
	outcome domain.Outcome
	err     error
}

// LMAXLedger 單一執行緒處理所有請求，Bank 只會被 run loop 存取
type LMAXLedger struct {
	journal *journal
	// 輸送帶 負責接收請求
	requestChan chan *ledgerRequest
	// run loop 結束後關閉
	stopped chan struct{}
	// Pool 減少 GC 壓力
	requestPool sync.Pool
}

// NewLMAXLedger 建立一個新的 LMAXLedger 實例，需呼叫 Start 才會開始處理請求
//
// 參數:
//
//	bank: 由快照還原的初始狀態
//	wal: Write-Ahead Log 實例 (可為 nil)
//
// 回傳:
//
//	*LMAXLedger: LMAXLedger 實例
//	error: 初始化錯誤
func NewLMAXLedger(bank *domain.Bank, wal *wal.WAL, opts ...Option) (*LMAXLedger, error) {
	ledger := &LMAXLedger{
		journal:     newJournal(bank, wal, opts),
		requestChan: make(chan *ledgerRequest, 1000), // Buffer 1000
		stopped:     make(chan struct{}),
		requestPool: sync.Pool{
			New: func() interface{} {
				return &ledgerRequest{
					result: make(chan ledgerResult, 1),
				}
			},
		},
	}

	// 在啟動前先恢復資料
	if err := ledger.journal.recoverFromWAL(); err != nil {
		return nil, err
	}
	return ledger, nil
}

// Apply 送出指令並等待結果
//
// Apply(等待) -> Channel -> Run Loop (核心) -> WAL -> Bank -> Result Channel -> Apply(收到結果)
func (l *LMAXLedger) Apply(ctx context.Context, cmd *domain.Command) (domain.Outcome, error) {
	return l.submit(ctx, cmd, nil)
}

// View 在 run loop 中執行查詢
func (l *LMAXLedger) View(ctx context.Context, fn func(bank *domain.Bank) error) error {
	_, err := l.submit(ctx, nil, fn)
	return err
}

// Checkpoint 在 run loop 中存檔，存檔期間不會處理其他請求
func (l *LMAXLedger) Checkpoint(ctx context.Context, save func(domain.Snapshot) error) error {
	_, err := l.submit(ctx, nil, func(*domain.Bank) error {
		return l.journal.checkpoint(save)
	})
	return err
}

func (l *LMAXLedger) submit(ctx context.Context, cmd *domain.Command, fn func(*domain.Bank) error) (domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}
	// 1. 放入輸送帶 (使用 sync.Pool 減少 GC)
	req := l.requestPool.Get().(*ledgerRequest)
	req.cmd = cmd
	req.fn = fn

	select {
	case l.requestChan <- req:
	case <-l.stopped:
		l.requestPool.Put(req)
		return domain.Outcome{}, ErrLedgerStopped
	case <-ctx.Done():
		l.requestPool.Put(req)
		return domain.Outcome{}, ctx.Err()
	}

	select {
	case res := <-req.result:
		req.cmd, req.fn = nil, nil
		l.requestPool.Put(req)
		return res.outcome, res.err
	case <-l.stopped:
		// 引擎停止前處理完的請求，結果已在 buffer 中
		select {
		case res := <-req.result:
			return res.outcome, res.err
		default:
			return domain.Outcome{}, ErrLedgerStopped
		}
	case <-ctx.Done():
		// 請求已進入輸送帶，結果仍會寫入 req.result，所以不放回 Pool
		return domain.Outcome{}, ctx.Err()
	}
}

// Start 啟動核心引擎 (非同步)，ctx 結束後處理完剩下的請求才停止
func (l *LMAXLedger) Start(ctx context.Context) {
	go l.run(ctx)
}

// Done 回傳在核心引擎停止後關閉的 channel
func (l *LMAXLedger) Done() <-chan struct{} {
	return l.stopped
}

func (l *LMAXLedger) run(ctx context.Context) {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case req := <-l.requestChan:
			l.process(req)
		}
	}
}

func (l *LMAXLedger) drain() {
	for {
		select {
		case req := <-l.requestChan:
			l.process(req)
		default:
			return
		}
	}
}

// process 處理單筆請求並回傳結果
func (l *LMAXLedger) process(req *ledgerRequest) {
	if req.fn != nil {
		req.result <- ledgerResult{err: req.fn(l.journal.bank)}
		return
	}
	out, err := l.journal.execute(req.cmd)
	req.result <- ledgerResult{outcome: out, err: err}
}

var _ usecase.Ledger = (*LMAXLedger)(nil)
