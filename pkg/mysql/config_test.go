package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{Host: "db", MaxIdleConns: 3}
	cfg.SetDefaults()

	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 3, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryInterval)
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 3307, User: "bank", Password: "secret", DBName: "ledger"}
	assert.Equal(t,
		"bank:secret@tcp(127.0.0.1:3307)/ledger?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DSN(),
	)
}
