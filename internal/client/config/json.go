package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/panayot-marinov/password-vault/internal/flagx"
	"github.com/panayot-marinov/password-vault/internal/timex"
)

// JsonConfig is the JSON-file counterpart of Config. Interval fields use
// timex.Duration, which accepts both string values such as "5m" and integer
// nanoseconds.
type JsonConfig struct {
	ServerAddr        string         `json:"server_addr"`
	AutoLogoutTimeout timex.Duration `json:"auto_logout_timeout"`
	KDFIterations     int            `json:"kdf_iterations"`
	PasswordLength    int            `json:"password_length"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded.
func parseJson(cfg *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	cfg.ServerAddr = c.ServerAddr
	cfg.AutoLogoutTimeout = time.Duration(c.AutoLogoutTimeout.Duration)
	cfg.KDFIterations = c.KDFIterations
	cfg.PasswordLength = c.PasswordLength
}
