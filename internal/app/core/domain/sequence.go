package domain

import "go.uber.org/atomic"

// AccountIDBaseline 帳戶編號起點，第一個分配到的編號為 1001
const AccountIDBaseline int64 = 1000

// Sequence 帳戶編號產生器
// 由 Bank 持有並隨快照一同保存；編號嚴格遞增，帳戶關閉後也不重複使用
type Sequence struct {
	last atomic.Int64
}

// NewSequence 建立從 last 之後開始分配的產生器
func NewSequence(last int64) *Sequence {
	s := &Sequence{}
	s.last.Store(last)
	return s
}

// Next 分配下一個編號
func (s *Sequence) Next() int64 {
	return s.last.Inc()
}

// Last 回傳最後一個已分配的編號
func (s *Sequence) Last() int64 {
	return s.last.Load()
}

// reset 只在 Restore 時使用
func (s *Sequence) reset(last int64) {
	s.last.Store(last)
}
