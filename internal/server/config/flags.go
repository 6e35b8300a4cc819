package config

import (
	"flag"
	"os"
	"time"

	"github.com/panayot-marinov/password-vault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   TCP bind address (e.g., ":4444")
//	-s string   storage backend: "memory" or "postgres"
//	-d string   PostgreSQL DSN
//	-k bool     enable the breach check
//	-e string   breach-check base endpoint
//	-t int      breach-check timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-d", "-k", "-e", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.Storage, "s", config.Storage, "storage backend (memory or postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.BoolVar(&config.BreachCheckEnabled, "k", config.BreachCheckEnabled, "enable breach check")
	fs.StringVar(&config.BreachCheckEndpoint, "e", config.BreachCheckEndpoint, "breach check endpoint")

	breachCheckTimeout := fs.Int("t", int(config.BreachCheckTimeout.Seconds()), "breach check timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.BreachCheckTimeout = time.Duration(*breachCheckTimeout) * time.Second
}
