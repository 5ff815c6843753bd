package common

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	ctx := context.Background()

	SetupLogger(slog.LevelDebug, "json")
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelDebug))

	SetupLogger(slog.LevelWarn, "text")
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelWarn))
}

func TestLogHelpers(t *testing.T) {
	// Smoke tests: the helpers must handle arbitrary field maps.
	LogError(errors.New("boom"), "operation failed", Fields{"id": "t1", "count": 3})
	LogError(errors.New("boom"), "operation failed", nil)
	LogDebug("state change", Fields{"from": "pending"})
	LogDebug("state change", nil)
}
