package server

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "10s", cfg.ShutdownTimeout)
	assert.Equal(t, "groups.json", cfg.Groups.Path)
	assert.Equal(t, "5s", cfg.Watch.ScanInterval)
	assert.Equal(t, int64(100_000_000), cfg.Content.MaxFileSize)
	assert.Equal(t, DefaultIgnorePatterns(), cfg.Watch.Ignore)
	assert.True(t, cfg.Metadata.Enabled())
}

func TestLoadServerConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("watch.scan_interval", "30s")
	viper.Set("metadata.type", "none")
	viper.Set("watch.ignore", []string{"*.swp"})

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "30s", cfg.Watch.ScanInterval)
	assert.Equal(t, []string{"*.swp"}, cfg.Watch.Ignore)
	assert.False(t, cfg.Metadata.Enabled())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", time.Minute},
		{"250ms", 250 * time.Millisecond},
		{"nonsense", time.Minute},
		{"-5s", time.Minute},
		{"0s", 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDuration(tt.value, time.Minute))
		})
	}
}
