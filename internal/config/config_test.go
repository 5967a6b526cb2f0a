package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, 2, cfg.Match.MinPlayers)
	assert.Equal(t, "full_card", cfg.Match.WinRule)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("listen_addr: \":6000\"\nmatch:\n  min_players: 3\n  win_rule: any_line\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("BINGO_MIN_PLAYERS", "4")
	t.Setenv("BINGO_DRAW_INTERVAL_SECONDS", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.ListenAddr)
	assert.Equal(t, 4, cfg.Match.MinPlayers, "env beats file")
	assert.Equal(t, "any_line", cfg.Match.WinRule)

	mc := cfg.MatchConfig()
	assert.Equal(t, time.Second, mc.DrawInterval)
	assert.Equal(t, 4, mc.MinPlayers)
}

func TestLoadRejectsUnknownWinRule(t *testing.T) {
	t.Setenv("BINGO_WIN_RULE", "corners")
	_, err := Load("")
	assert.Error(t, err)
}
