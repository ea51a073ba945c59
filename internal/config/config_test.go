package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
ledger:
  type: lmax
  store: mysql
  checkpoint_interval: 30s
grpc:
  addr: ":6000"
mysql:
  host: db
  user: bank
  db_name: ledger
`)
	envFile := writeFile(t, ".env", "")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, LedgerTypeLMAX, cfg.Ledger.Type)
	assert.Equal(t, StoreTypeMySQL, cfg.Ledger.Store)
	assert.Equal(t, 30*time.Second, cfg.Ledger.CheckpointInterval)
	assert.Equal(t, ":6000", cfg.GRPC.Addr)
	assert.Equal(t, "data/wal.log", cfg.Ledger.WALPath)
	// MySQL 連線池預設值
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, 100, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, "bank:@tcp(db:3306)/ledger?charset=utf8mb4&parseTime=True&loc=Local", cfg.MySQL.DSN())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "ledger:\n  type: lmax\n")
	envFile := writeFile(t, ".env", "BANK_GRPC_ADDR=:7000\n")
	t.Cleanup(func() { _ = os.Unsetenv("BANK_GRPC_ADDR") })
	t.Setenv("BANK_LEDGER_TYPE", "mutex")
	t.Setenv("BANK_METRICS_ENABLED", "true")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, LedgerTypeMutex, cfg.Ledger.Type)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":7000", cfg.GRPC.Addr)
	assert.Equal(t, StoreTypeFile, cfg.Ledger.Store)
}

func TestLoad_Invalid(t *testing.T) {
	envFile := writeFile(t, ".env", "")

	_, err := Load(writeFile(t, "config.yaml", "ledger:\n  type: sharded\n"), envFile)
	assert.ErrorContains(t, err, "invalid ledger type")

	_, err = Load(writeFile(t, "config.yaml", "ledger:\n  store: s3\n"), envFile)
	assert.ErrorContains(t, err, "invalid snapshot store")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), envFile)
	assert.Error(t, err)
}
