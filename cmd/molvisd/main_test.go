package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Roy-Kid/molvis/config"
)

func TestApplyFlagOverrides_FileLogLevelKept(t *testing.T) {
	t.Setenv("MOLVIS_LOG_LEVEL", "")

	cfg := config.DefaultConfig()
	cfg.LogLevel = "debug"

	// The flag default is "info"; without -log-level on the command line the
	// file value must survive.
	applyFlagOverrides(cfg, &CLIConfig{LogLevel: "info"})
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyFlagOverrides_EnvLogLevelWins(t *testing.T) {
	t.Setenv("MOLVIS_LOG_LEVEL", "warn")

	cfg := config.DefaultConfig()
	cfg.LogLevel = "debug"

	applyFlagOverrides(cfg, &CLIConfig{LogLevel: "warn"})
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyFlagOverrides_Listen(t *testing.T) {
	t.Setenv("MOLVIS_LOG_LEVEL", "")

	cfg := config.DefaultConfig()
	applyFlagOverrides(cfg, &CLIConfig{Listen: ":9999"})
	assert.Equal(t, ":9999", cfg.Listen)

	before := cfg.Listen
	applyFlagOverrides(cfg, &CLIConfig{})
	assert.Equal(t, before, cfg.Listen)
}

func TestSetupLogger_Level(t *testing.T) {
	debug := setupLogger("debug", "json")
	assert.True(t, debug.Enabled(context.Background(), slog.LevelDebug))

	warn := setupLogger("warn", "text")
	assert.False(t, warn.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, warn.Enabled(context.Background(), slog.LevelWarn))
}
