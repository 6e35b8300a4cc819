package config

import (
	"flag"
	"os"
	"time"

	"github.com/panayot-marinov/password-vault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the vault server (default from Config)
//	-l int      auto-logout timeout in seconds (default from Config)
//	-i int      PBKDF2 iterations used on registration
//	-n int      generated password length
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-l", "-i", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "address and port to access server")
	fs.IntVar(&cfg.KDFIterations, "i", cfg.KDFIterations, "PBKDF2 iterations for new accounts")
	fs.IntVar(&cfg.PasswordLength, "n", cfg.PasswordLength, "generated password length")

	autoLogoutTimeout := fs.Int("l", int(cfg.AutoLogoutTimeout.Seconds()), "auto-logout timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutoLogoutTimeout = time.Duration(*autoLogoutTimeout) * time.Second
}
