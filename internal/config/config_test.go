package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8700, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, 5, cfg.Session.TimeoutMinutes)
	assert.Equal(t, 30, cfg.Session.SweepSeconds)
	assert.Equal(t, "sqlite", cfg.Tree.Store)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.CDP.Endpoint)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  bind: lan
session:
  timeoutMinutes: 10
cdp:
  endpoint: https://cdp.example.com/v1/track
  writeKey: wk-123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, 10, cfg.Session.TimeoutMinutes)
	assert.Equal(t, 30, cfg.Session.SweepSeconds, "unset fields keep defaults")
	assert.Equal(t, "https://cdp.example.com/v1/track", cfg.CDP.Endpoint)
	assert.Equal(t, "wk-123", cfg.CDP.WriteKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("USSDD_PORT", "9999")
	t.Setenv("USSDD_LOG_LEVEL", "DEBUG")
	t.Setenv("USSDD_CDP_ENDPOINT", "https://env.example.com/track")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://env.example.com/track", cfg.CDP.Endpoint)
}

func TestLoad_ExpandsWriteKey(t *testing.T) {
	t.Setenv("MY_WRITE_KEY", "secret-key")
	path := writeConfig(t, `
cdp:
  endpoint: https://cdp.example.com/track
  writeKey: ${MY_WRITE_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.CDP.WriteKey)
}

func TestExpandEnvVars_UnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${NOT_SET_ANYWHERE_XYZ}", expandEnvVars("${NOT_SET_ANYWHERE_XYZ}"))
}

func TestValidate_OK(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Issues(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 70000
	cfg.Server.Bind = "everywhere"
	cfg.Session.TimeoutMinutes = -1
	cfg.Tree.Store = "postgres"
	cfg.CDP.Endpoint = "not a url"
	cfg.Logging.Level = "loud"

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, issue := range issues {
		paths = append(paths, issue.Path)
	}

	assert.Contains(t, paths, "server.port")
	assert.Contains(t, paths, "server.bind")
	assert.Contains(t, paths, "session.timeoutMinutes")
	assert.Contains(t, paths, "tree.store")
	assert.Contains(t, paths, "cdp.endpoint")
	assert.Contains(t, paths, "logging.level")
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"server.port", []string{"server", "port"}, false},
		{"logging", []string{"logging"}, false},
		{"a.b.c", []string{"a", "b", "c"}, false},
		{"", nil, true},
		{"server..port", nil, true},
		{".server", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetSetValueAtPath(t *testing.T) {
	root := map[string]any{}

	SetValueAtPath(root, []string{"server", "port"}, 9000)

	val, ok := GetValueAtPath(root, []string{"server", "port"})
	require.True(t, ok)
	assert.Equal(t, 9000, val)

	_, ok = GetValueAtPath(root, []string{"server", "bind"})
	assert.False(t, ok)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{}
	SetValueAtPath(root, []string{"server", "port"}, 9000)

	assert.False(t, UnsetValueAtPath(root, []string{"server", "bind"}))
	assert.True(t, UnsetValueAtPath(root, []string{"server", "port"}))

	_, ok := GetValueAtPath(root, []string{"server", "port"})
	assert.False(t, ok)
}

func TestLoadSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw := map[string]any{"server": map[string]any{"port": 9000}}
	require.NoError(t, SaveRaw(path, raw))

	got, err := LoadRaw(path)
	require.NoError(t, err)

	val, ok := GetValueAtPath(got, []string{"server", "port"})
	require.True(t, ok)
	assert.Equal(t, 9000, val)
}

func TestResolvePaths(t *testing.T) {
	t.Setenv("USSDD_HOME", t.TempDir())

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.Base, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(paths.Base, "data"), paths.Data)

	require.NoError(t, paths.EnsureDirs())
	for _, d := range []string{paths.Base, paths.Data, paths.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
