package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Run("knowledge base", func(t *testing.T) {
		t.Setenv("MEDNERD_KB_PATH", "/data/kb.db")
		t.Setenv("MEDNERD_KB_BACKEND", "SQLite")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/data/kb.db", cfg.Knowledge.Path)
		assert.Equal(t, "sqlite", cfg.Knowledge.Backend)
	})

	t.Run("fetch and server", func(t *testing.T) {
		t.Setenv("MEDNERD_FETCH_BASE_URL", "http://localhost:9999/conditions/")
		t.Setenv("MEDNERD_ADDR", "127.0.0.1:8080")
		t.Setenv("MEDNERD_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://localhost:9999/conditions/", cfg.Fetch.BaseURL)
		assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("unset variables leave defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, DefaultConfig().Knowledge, cfg.Knowledge)
		assert.Equal(t, ":8000", cfg.Server.Addr)
	})
}
