package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.ListenAddr)
	require.Equal(t, 5*time.Minute, cfg.Server.LeasePeriod)
	require.Equal(t, int32(10), cfg.Database.MaxConns)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, 2, cfg.Game.MinPlayers)
	require.Equal(t, 4, cfg.Game.MaxPlayers)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":9999"
  lease_period: 30s
database:
  dsn: "postgres://localhost/kingdom"
  max_conns: 3
logging:
  level: debug
  format: console
game:
  min_players: 3
  max_players: 6
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.Server.ListenAddr)
	require.Equal(t, 30*time.Second, cfg.Server.LeasePeriod)
	require.Equal(t, "postgres://localhost/kingdom", cfg.Database.DSN)
	require.Equal(t, int32(3), cfg.Database.MaxConns)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, 3, cfg.Game.MinPlayers)
	require.Equal(t, 6, cfg.Game.MaxPlayers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"min players below two", "game:\n  min_players: 1\n"},
		{"max below min", "game:\n  min_players: 3\n  max_players: 2\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}
