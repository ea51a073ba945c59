package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	file_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/file"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/internal/config"
	grpcpkg "github.com/JoeShih716/go-bank-ledger/pkg/grpc"
	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
	"github.com/JoeShih716/go-bank-ledger/pkg/metrics"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "core",
		Short:        "In-memory bank ledger server",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var cfgPath, envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC ledger server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			cfg, err := config.Load(cfgPath, envFiles...)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "optional .env file (default: ./.env if present)")
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	// 1. Logger
	log := logger.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if parent != nil {
		go func() {
			select {
			case <-parent.Done():
				stop()
			case <-ctx.Done():
			}
		}()
	}

	// 2. 快照儲存 (file / mysql)
	store, closeStore, err := openSnapshotStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. 由快照還原 Bank
	bank, err := usecase.LoadBank(ctx, store)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	log.Info("snapshot loaded", "customers", len(bank.Customers()), "last_account_id", bank.LastAccountID())

	// 4. 初始化 WAL
	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.WALPath), 0o755); err != nil {
		return err
	}
	walFile, err := wal.NewWAL(cfg.Ledger.WALPath)
	if err != nil {
		return fmt.Errorf("init wal: %w", err)
	}
	// 程式結束時關閉 WAL
	defer walFile.Close()

	// 5. 建立 Ledger (WAL 重放在建構時完成)
	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()
	var usedLedger usecase.Ledger
	var engineDone <-chan struct{}
	switch cfg.Ledger.Type {
	case config.LedgerTypeMutex:
		usedLedger, err = memory_adapter.NewMutexLedger(bank, walFile, memory_adapter.WithLogger(log))
		if err != nil {
			return fmt.Errorf("init mutex ledger: %w", err)
		}
	case config.LedgerTypeLMAX:
		lmax, err := memory_adapter.NewLMAXLedger(bank, walFile, memory_adapter.WithLogger(log))
		if err != nil {
			return fmt.Errorf("init lmax ledger: %w", err)
		}
		lmax.Start(engineCtx)
		engineDone = lmax.Done()
		usedLedger = lmax
	default:
		return fmt.Errorf("invalid ledger type: %s", cfg.Ledger.Type)
	}
	log.Info("ledger ready", "type", cfg.Ledger.Type, "store", cfg.Ledger.Store)

	// 6. Metrics
	recorder := metrics.NewRecorder("bank")
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, recorder)
		go func() {
			log.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	// 7. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(usedLedger,
		usecase.WithSnapshotStore(store),
		usecase.WithMetrics(recorder),
		usecase.WithLogger(log),
	)

	// 8. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcpkg.UnaryServerRecovery(log),
		grpcpkg.UnaryServerLogger(log),
	))
	grpc_adapter.RegisterBankServiceServer(s, grpc_adapter.NewGrpcServer(coreUseCase))

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting grpc server", "addr", cfg.GRPC.Addr)
		serveErr <- s.Serve(lis)
	}()

	// 9. 定期存檔
	if cfg.Ledger.CheckpointInterval > 0 {
		go runCheckpoints(ctx, coreUseCase, cfg.Ledger.CheckpointInterval, log)
	}

	// Wait for interrupt
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("grpc server stopped", "error", err)
		}
	}
	log.Info("shutting down server")

	s.GracefulStop()

	// 關機前最後一次存檔，成功後 WAL 會被清空
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := coreUseCase.Checkpoint(shutdownCtx); err != nil {
		log.Error("final checkpoint failed, wal kept for recovery", "error", err)
	}

	stopEngine()
	if engineDone != nil {
		<-engineDone
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	log.Info("server exited")
	return nil
}

func openSnapshotStore(ctx context.Context, cfg config.Config, log *slog.Logger) (usecase.SnapshotStore, func(), error) {
	switch cfg.Ledger.Store {
	case config.StoreTypeMySQL:
		dbClient, err := mysql.NewClient(ctx, cfg.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		log.Info("connected to mysql", "host", cfg.MySQL.Host, "db", cfg.MySQL.DBName)
		store := mysql_adapter.NewSnapshotStore(dbClient.DB())
		if err := store.Migrate(ctx); err != nil {
			_ = dbClient.Close()
			return nil, nil, fmt.Errorf("migrate snapshot tables: %w", err)
		}
		return store, func() { _ = dbClient.Close() }, nil
	default:
		return file_adapter.NewSnapshotStore(cfg.Ledger.SnapshotPath), func() {}, nil
	}
}

func runCheckpoints(ctx context.Context, core *usecase.CoreUseCase, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := core.Checkpoint(ctx); err != nil {
				log.Error("periodic checkpoint failed", "error", err)
			}
		}
	}
}
