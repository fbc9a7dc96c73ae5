package client

import (
	"testing"

	"gig-marketplace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"", "sqlite", "mysql"} {
		d, err := dialector(config.Database{Driver: driver, URL: "x"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := dialector(config.Database{Driver: "postgres"})
	assert.Error(t, err)
}

func TestInitDBClient_MigratesSqlite(t *testing.T) {
	cfg := &config.Config{
		Database: config.Database{Driver: "sqlite", URL: "file:init_db_client?mode=memory&cache=shared"},
	}

	db, err := InitDBClient(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, table := range []string{"users", "offers", "orders", "webhook_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("orders", "idx_orders_stripe_session_id"))
}
