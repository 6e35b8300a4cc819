// Package config handles configuration for the CLI client,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/panayot-marinov/password-vault/internal/cryptox"
)

// Config holds runtime settings for the vault CLI.
//
// Fields:
//   - ServerAddr: host:port of the vault server TCP endpoint.
//   - AutoLogoutTimeout: inactivity deadline after which the session logs
//     itself out.
//   - KDFIterations: PBKDF2 round count used when registering a new account.
//   - PasswordLength: length of passwords produced by the generate command.
type Config struct {
	ServerAddr        string
	AutoLogoutTimeout time.Duration
	KDFIterations     int
	PasswordLength    int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:4444"
	c.AutoLogoutTimeout = 5 * time.Minute
	c.KDFIterations = cryptox.DefaultIterations
	c.PasswordLength = 16
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
