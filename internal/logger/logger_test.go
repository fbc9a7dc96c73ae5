package logger

import (
	"testing"

	"gig-marketplace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	log, err := New(&config.Config{
		Environment: config.Environment{Name: "production"},
		Log:         config.Log{Level: "warn", Format: "json"},
	})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))

	log, err = New(&config.Config{Log: config.Log{Level: "debug", Format: "console"}})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&config.Config{Log: config.Log{Level: "loud"}})
	assert.Error(t, err)
}
