package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 15*time.Second, cfg.CollectInterval)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Config
		wantErr string
	}{
		{
			name:  "empty document uses defaults",
			input: "",
			want:  Default(),
		},
		{
			name: "all fields",
			input: `
workers: 12
logLevel: debug
logJSON: true
metricsAddr: 127.0.0.1:9191
collectInterval: 30s
`,
			want: &Config{
				Workers:         12,
				LogLevel:        "debug",
				LogJSON:         true,
				MetricsAddr:     "127.0.0.1:9191",
				CollectInterval: 30 * time.Second,
			},
		},
		{
			name:  "partial",
			input: "workers: 2\n",
			want: &Config{
				Workers:         2,
				LogLevel:        DefaultLogLevel,
				MetricsAddr:     DefaultMetricsAddr,
				CollectInterval: DefaultCollectInterval,
			},
		},
		{
			name:    "negative workers",
			input:   "workers: -1\n",
			wantErr: "workers must be at least 1",
		},
		{
			name:    "unknown level",
			input:   "logLevel: verbose\n",
			wantErr: `unknown log level "verbose"`,
		},
		{
			name:    "malformed",
			input:   "workers: [1, 2\n",
			wantErr: "failed to parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\nlogJSON: true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.LogJSON)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Workers = 9

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "collectInterval: 15s")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLogConfig(t *testing.T) {
	cfg := &Config{LogLevel: "warn", LogJSON: true}

	lc := cfg.LogConfig()
	assert.Equal(t, log.WarnLevel, lc.Level)
	assert.True(t, lc.JSONOutput)
}
