package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "quadline.db", cfg.StorePath)
	assert.False(t, cfg.InMemory)
	assert.True(t, cfg.ParseMetrics)
	assert.Equal(t, 1000, cfg.LoadBatch)
	assert.Equal(t, int64(1)<<30, cfg.MaxInputBytes)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quadline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /var/lib/quadline
log:
  verbosity: 2
parse:
  metrics: false
load:
  batch: 50
`), 0o600))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/quadline", cfg.StorePath)
	assert.Equal(t, 2, cfg.LogVerbosity)
	assert.False(t, cfg.ParseMetrics)
	assert.Equal(t, 50, cfg.LoadBatch)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("QUADLINE_STORE_IN_MEMORY", "true")
	t.Setenv("QUADLINE_LOAD_BATCH", "7")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.True(t, cfg.InMemory)
	assert.Equal(t, 7, cfg.LoadBatch)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{StorePath: "db", LoadBatch: 1}, true},
		{"in memory without path", Config{InMemory: true, LoadBatch: 1}, true},
		{"no path", Config{LoadBatch: 1}, false},
		{"zero batch", Config{StorePath: "db"}, false},
		{"negative verbosity", Config{StorePath: "db", LoadBatch: 1, LogVerbosity: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
