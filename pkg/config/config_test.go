package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protochain/pkg/store"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, store.DefaultHopCap, cfg.HopCap)
	assert.False(t, cfg.Strict)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protochain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hop_cap: 64\nstrict: true\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.HopCap)
	assert.True(t, cfg.Strict)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protochain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, store.DefaultHopCap, cfg.HopCap)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	cfg := Config{LogLevel: "shout"}
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}
