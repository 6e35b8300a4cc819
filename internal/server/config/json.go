package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/panayot-marinov/password-vault/internal/flagx"
	"github.com/panayot-marinov/password-vault/internal/timex"
)

// JsonConfig is the JSON-file counterpart of Config. Interval fields use
// timex.Duration, which accepts both string values such as "5s" and integer
// nanoseconds. After unmarshalling, its fields are copied into the runtime
// Config struct.
type JsonConfig struct {
	EndpointAddr        string         `json:"endpoint_addr"`
	Storage             string         `json:"storage"`
	DatabaseDSN         string         `json:"database_dsn"`
	BreachCheckEnabled  bool           `json:"breach_check_enabled"`
	BreachCheckEndpoint string         `json:"breach_check_endpoint"`
	BreachCheckTimeout  timex.Duration `json:"breach_check_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. An unreadable or
// invalid file panics: a config file that was asked for but cannot be used
// is a startup error.
func parseJson(config *Config) {

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

	config.EndpointAddr = c.EndpointAddr
	config.Storage = c.Storage
	config.DatabaseDSN = c.DatabaseDSN
	config.BreachCheckEnabled = c.BreachCheckEnabled
	config.BreachCheckEndpoint = c.BreachCheckEndpoint
	config.BreachCheckTimeout = time.Duration(c.BreachCheckTimeout.Duration)
}
