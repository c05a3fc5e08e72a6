package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.Equal(t, 1000, cfg.Timeline.CelebrityThreshold)
	require.Equal(t, 800, cfg.Timeline.MaxTimelineLength)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "microfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  port: 9090
  host: "127.0.0.1"
  mode: "debug"
timeline:
  celebrity_threshold: 3
  max_timeline_length: 5
`), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.Mode)
	require.Equal(t, 3, cfg.Timeline.CelebrityThreshold)
	require.Equal(t, 5, cfg.Timeline.MaxTimelineLength)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "microfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  port: 9090
`), 0o644))

	t.Setenv("TIMELINE_SERVER__PORT", "7070")
	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_PostgresDriverRequiresDSN(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "microfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
database:
  driver: "postgres"
`), 0o644))

	_, err := Load(cfgPath)
	require.ErrorContains(t, err, "database.dsn is required")
}

func TestLoad_InvalidServerPortFailsStartup(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "microfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  port: -1
`), 0o644))

	_, err := Load(cfgPath)
	require.ErrorContains(t, err, "invalid server.port")
}

func TestLoad_UnsupportedDriverFailsStartup(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, "microfeed.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
database:
  driver: "sqlite"
`), 0o644))

	_, err := Load(cfgPath)
	require.ErrorContains(t, err, "unsupported database.driver")
}
