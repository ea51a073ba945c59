package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
)

// EnvPrefix 環境變數前綴，例如 BANK_LEDGER_TYPE
const EnvPrefix = "BANK_"

// LedgerType 設定使用哪種 Ledger
type LedgerType string

const (
	LedgerTypeMutex LedgerType = "mutex"
	LedgerTypeLMAX  LedgerType = "lmax"
)

// StoreType 快照儲存位置
type StoreType string

const (
	StoreTypeFile  StoreType = "file"
	StoreTypeMySQL StoreType = "mysql"
)

type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger" envPrefix:"LEDGER_"`
	GRPC    GRPCConfig    `yaml:"grpc" envPrefix:"GRPC_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Log     logger.Config `yaml:"log" envPrefix:"LOG_"`
	MySQL   mysql.Config  `yaml:"mysql" envPrefix:"MYSQL_"`
}

type LedgerConfig struct {
	Type               LedgerType    `yaml:"type" env:"TYPE"`
	Store              StoreType     `yaml:"store" env:"STORE"`
	WALPath            string        `yaml:"wal_path" env:"WAL_PATH"`
	SnapshotPath       string        `yaml:"snapshot_path" env:"SNAPSHOT_PATH"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval" env:"CHECKPOINT_INTERVAL"` // 0 表示只在關機時存檔
}

type GRPCConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Addr    string `yaml:"addr" env:"ADDR"`
}

// Load 載入設定: YAML 檔 -> .env -> 環境變數覆寫 -> 補全預設值
//
// 參數:
//
//	path: YAML 設定檔路徑，空字串表示不讀檔
//	envFiles: .env 檔，未指定時嘗試讀取工作目錄下的 .env (不存在則略過)
//
// 回傳:
//
//	Config: 完整設定
//	error: 讀檔、解析或驗證錯誤
func Load(path string, envFiles ...string) (Config, error) {
	var cfg Config
	if path != "" {
		cfgData, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return cfg, fmt.Errorf("load env files: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SetDefaults 補全 yaml 與環境變數都沒設定的欄位
func (c *Config) SetDefaults() {
	if c.Ledger.Type == "" {
		c.Ledger.Type = LedgerTypeMutex
	}
	if c.Ledger.Store == "" {
		c.Ledger.Store = StoreTypeFile
	}
	if c.Ledger.WALPath == "" {
		c.Ledger.WALPath = "data/wal.log"
	}
	if c.Ledger.SnapshotPath == "" {
		c.Ledger.SnapshotPath = "data/bank.json"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9092"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Prefix == "" {
		c.Log.Prefix = "bank"
	}
	if c.Ledger.Store == StoreTypeMySQL {
		c.MySQL.SetDefaults()
	}
}

// Validate 檢查列舉值
func (c *Config) Validate() error {
	switch c.Ledger.Type {
	case LedgerTypeMutex, LedgerTypeLMAX:
	default:
		return fmt.Errorf("invalid ledger type %q", c.Ledger.Type)
	}
	switch c.Ledger.Store {
	case StoreTypeFile, StoreTypeMySQL:
	default:
		return fmt.Errorf("invalid snapshot store %q", c.Ledger.Store)
	}
	if c.Ledger.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint interval must not be negative")
	}
	return nil
}
