package grpc

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryServerRecovery_PanicBecomesInternal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	info := &grpc.UnaryServerInfo{FullMethod: "/bank.v1.BankService/CloseAccount"}

	recovery := UnaryServerRecovery(logger)
	var resp any
	var err error
	require.NotPanics(t, func() {
		resp, err = recovery(context.Background(), nil, info, func(context.Context, any) (any, error) {
			var summary *struct{ Balance int64 }
			return summary.Balance, nil
		})
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, buf.String(), "grpc handler panic")
	assert.Contains(t, buf.String(), "CloseAccount")
}

func TestUnaryServerRecovery_PassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	info := &grpc.UnaryServerInfo{FullMethod: "/bank.v1.BankService/GetAccount"}
	notFound := status.Error(codes.NotFound, "account not found")

	recovery := UnaryServerRecovery(logger)
	resp, err := recovery(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = recovery(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, notFound
	})
	assert.Equal(t, notFound, err)
}
