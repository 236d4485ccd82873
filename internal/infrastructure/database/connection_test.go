package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
)

func TestOpenAndClose(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	cfg := &config.DatabaseConfig{Host: "memory", Port: 0, Name: "test", MaxOpenConns: 1, MaxIdleConns: 1}
	db, err := Open(context.Background(), sqlite.Open(":memory:"), cfg, log)
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	require.NoError(t, Close(db, log))
	assert.Equal(t, 1, logs.FilterMessage("Database connection established").Len())
	assert.Equal(t, 1, logs.FilterMessage("Database connection closed").Len())
}
