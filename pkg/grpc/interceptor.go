package grpc

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryClientLogger 記錄每個請求的方法、耗時與狀態碼
func UnaryClientLogger(logger *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger.DebugContext(ctx, "grpc call",
			"method", method,
			"target", cc.Target(),
			"code", status.Code(err).String(),
			"elapsed", time.Since(start))
		return err
	}
}

// UnaryServerLogger 伺服器端的請求日誌
func UnaryServerLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "elapsed", time.Since(start)}
		if err != nil {
			logger.InfoContext(ctx, "grpc request failed", append(attrs, "error", err)...)
		} else {
			logger.DebugContext(ctx, "grpc request", attrs...)
		}
		return resp, err
	}
}

// UnaryServerRecovery 攔下 handler 的 panic，記錄堆疊後回傳 codes.Internal，伺服器繼續服務
// 需放在攔截器鏈的最外層
func UnaryServerRecovery(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "grpc handler panic",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()))
				resp, err = nil, status.Errorf(codes.Internal, "internal error in %s", info.FullMethod)
			}
		}()
		return handler(ctx, req)
	}
}
