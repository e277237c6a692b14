package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int {
	return &n
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, time.Second, cfg.Game.BotDelay())
	assert.Equal(t, 4, cfg.Game.RoomCodeLength)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromHCL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parlour.hcl")
	content := `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

game {
  bot_delay_ms     = 250
  room_code_length = 6

  pickpass {
    start_chips = 9
    seats       = 4
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.BotDelay())
	assert.Equal(t, 6, cfg.Game.RoomCodeLength)

	pp := cfg.Game.PickPassConfig()
	assert.Equal(t, 9, pp.StartChips)
	assert.Equal(t, 4, pp.Seats)
	assert.Equal(t, 3, pp.MinCard, "unset overrides keep the standard rules")
	assert.Equal(t, 35, pp.MaxCard)
	assert.Equal(t, 9, pp.CardsRemoved)
}

func TestLoadConfigPartialFileFillsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parlour.hcl")
	content := `
server {
  port = 9100
}

game {}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9100", cfg.GetServerAddress())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Nil(t, cfg.Game.BotDelayMS)
	assert.Equal(t, time.Second, cfg.Game.BotDelay())
	assert.Equal(t, 4, cfg.Game.RoomCodeLength)
}

func TestLoadConfigExplicitZeroBotDelay(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parlour.hcl")
	content := `
server {}

game {
  bot_delay_ms = 0
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Zero(t, cfg.Game.BotDelay(), "explicit zero means no presentation delay")
}

func TestApplyAddrOverride(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyAddrOverride("0.0.0.0:9200"))
	assert.Equal(t, "0.0.0.0:9200", cfg.GetServerAddress())
	require.NoError(t, cfg.Validate())

	assert.Error(t, cfg.ApplyAddrOverride("no-port"))
	assert.Error(t, cfg.ApplyAddrOverride("host:notanumber"))
	assert.Equal(t, "0.0.0.0:9200", cfg.GetServerAddress(), "failed overrides leave the config untouched")
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"negative bot delay", func(c *Config) { c.Game.BotDelayMS = intp(-1) }, true},
		{"zero bot delay is instant, not invalid", func(c *Config) { c.Game.BotDelayMS = intp(0) }, false},
		{"short room code", func(c *Config) { c.Game.RoomCodeLength = 3 }, true},
		{"inverted pickpass card range", func(c *Config) {
			c.Game.PickPass = &PickPassSettings{MinCard: 20, MaxCard: 10}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
