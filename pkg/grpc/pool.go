package grpc

import (
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Pool 依目標地址快取 bankctl 使用的 ledger 連線，每個地址只保留一條
// 可由多個 goroutine 共用 (bench 指令即如此)
type Pool struct {
	mu          sync.Mutex
	conns       map[string]*grpc.ClientConn
	interceptor grpc.UnaryClientInterceptor
	dialOpts    []grpc.DialOption
}

// PoolOption 設定 Pool
type PoolOption func(*Pool)

// WithInterceptor 每條連線都掛上的 unary 攔截器，bankctl --verbose 用來記錄呼叫
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(p *Pool) {
		p.interceptor = interceptor
	}
}

// WithJSONCodec 所有呼叫預設使用 JSON codec (content-subtype "json")
func WithJSONCodec() PoolOption {
	return func(p *Pool) {
		p.dialOpts = append(p.dialOpts, grpc.WithDefaultCallOptions(grpc.CallContentSubtype(JSONCodecName)))
	}
}

// WithDialOptions 附加額外的連線選項，例如測試用的 bufconn dialer
func WithDialOptions(opts ...grpc.DialOption) PoolOption {
	return func(p *Pool) {
		p.dialOpts = append(p.dialOpts, opts...)
	}
}

func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{conns: make(map[string]*grpc.ClientConn)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ledgerKeepalive ledger 伺服器在 bench 時可能長時間無請求，靠 ping 維持連線
var ledgerKeepalive = keepalive.ClientParameters{
	Time:                10 * time.Second,
	Timeout:             time.Second,
	PermitWithoutStream: true,
}

// dialOptions 組合順序: 預設值 -> Pool 選項 -> 單次呼叫的 extra
func (p *Pool) dialOptions(extra []grpc.DialOption) []grpc.DialOption {
	opts := []grpc.DialOption{
		// TLS 由部署環境處理
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(ledgerKeepalive),
	}
	if p.interceptor != nil {
		opts = append(opts, grpc.WithUnaryInterceptor(p.interceptor))
	}
	opts = append(opts, p.dialOpts...)
	return append(opts, extra...)
}

// liveConn 回傳快取中尚未關閉的連線，已關閉的順便移除；呼叫端需持有 mu
func (p *Pool) liveConn(target string) (*grpc.ClientConn, bool) {
	conn, ok := p.conns[target]
	if !ok {
		return nil, false
	}
	if conn.GetState() == connectivity.Shutdown {
		delete(p.conns, target)
		return nil, false
	}
	return conn, true
}

// GetConnection 取得 target 的連線，沒有可用的就新建一條
//
// 參數:
//
//	target: ledger 地址，例如 "localhost:50051" 或 "passthrough:///bufnet"
//	opts: 只套用在這次新建連線的額外選項
//
// 回傳:
//
//	*grpc.ClientConn: 延遲連線，第一次 RPC 時才真正撥號
//	error: grpc.NewClient 失敗
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.liveConn(target); ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(target, p.dialOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("create ledger client for %s: %w", target, err)
	}
	p.conns[target] = conn
	return conn, nil
}

// Close 關閉所有連線並清空快取，之後仍可再取得新連線
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for target, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, target)
	}
	return firstErr
}
