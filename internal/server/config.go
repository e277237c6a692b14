package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/hexagrid/parlour/internal/pickpass"
)

const defaultBotDelayMS = 1000

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the room and game tuning knobs. BotDelayMS is a
// pointer so an explicit zero (no presentation delay) is distinguishable
// from an absent attribute.
type GameSettings struct {
	BotDelayMS     *int              `hcl:"bot_delay_ms,optional"`
	RoomCodeLength int               `hcl:"room_code_length,optional"`
	PickPass       *PickPassSettings `hcl:"pickpass,block"`
}

// PickPassSettings overrides the standard PickPass table rules
type PickPassSettings struct {
	MinCard      int `hcl:"min_card,optional"`
	MaxCard      int `hcl:"max_card,optional"`
	CardsRemoved int `hcl:"cards_removed,optional"`
	StartChips   int `hcl:"start_chips,optional"`
	Seats        int `hcl:"seats,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			RoomCodeLength: 4,
		},
	}
}

// LoadConfig loads server configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.RoomCodeLength == 0 {
		config.Game.RoomCodeLength = defaults.Game.RoomCodeLength
	}

	return &config, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if d := c.Game.BotDelayMS; d != nil && *d < 0 {
		return fmt.Errorf("bot_delay_ms must not be negative")
	}
	if c.Game.RoomCodeLength < 4 {
		return fmt.Errorf("room_code_length must be at least 4")
	}
	if pp := c.Game.PickPass; pp != nil {
		if pp.MinCard != 0 && pp.MaxCard != 0 && pp.MinCard >= pp.MaxCard {
			return fmt.Errorf("pickpass min_card must be below max_card")
		}
	}
	return nil
}

// GetServerAddress returns the full address to bind to
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ApplyAddrOverride replaces the configured bind address and port from a
// combined host:port string as given on the command line. The config is left
// untouched when the string does not parse.
func (c *Config) ApplyAddrOverride(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port in address %q: %w", addr, err)
	}

	c.Server.Address = host
	c.Server.Port = port
	return nil
}

// BotDelay returns the presentation delay between autonomous bot moves,
// defaulting to one second when unconfigured.
func (g GameSettings) BotDelay() time.Duration {
	ms := defaultBotDelayMS
	if g.BotDelayMS != nil {
		ms = *g.BotDelayMS
	}
	return time.Duration(ms) * time.Millisecond
}

// PickPassConfig merges any configured overrides onto the standard rules.
func (g GameSettings) PickPassConfig() pickpass.Config {
	cfg := pickpass.DefaultConfig()
	if pp := g.PickPass; pp != nil {
		if pp.MinCard != 0 {
			cfg.MinCard = pp.MinCard
		}
		if pp.MaxCard != 0 {
			cfg.MaxCard = pp.MaxCard
		}
		if pp.CardsRemoved != 0 {
			cfg.CardsRemoved = pp.CardsRemoved
		}
		if pp.StartChips != 0 {
			cfg.StartChips = pp.StartChips
		}
		if pp.Seats != 0 {
			cfg.Seats = pp.Seats
		}
	}
	return cfg
}
