package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangeAccountPassword(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Add(ctx context.Context) error
	Generate(ctx context.Context) error
	Get(ctx context.Context) error
	Update(ctx context.Context) error
	Remove(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the vault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands while not logged in: help, register, login, exit.
// Commands while logged in: help, add, generate, get, update, remove,
// passwd, delete-account, logout, exit.
//
// Any errors returned by command handlers are ignored here; handlers report
// their own outcomes. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("vault %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, generate, get, update, remove, passwd, delete-account, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "add":
			_ = a.Add(ctx)

		case "generate":
			_ = a.Generate(ctx)

		case "get":
			_ = a.Get(ctx)

		case "update":
			_ = a.Update(ctx)

		case "remove":
			_ = a.Remove(ctx)

		case "passwd":
			_ = a.ChangeAccountPassword(ctx)

		case "delete-account":
			_ = a.DeleteAccount(ctx)

		case "exit", "quit":
			return

		default:
			printlnFn(fmt.Sprintf("Unknown command: %s (type 'help')", cmd))
		}
	}
}
