// Package cli implements the interactive vault client: a line-oriented REPL
// over one TCP connection, with all cryptography done locally so the server
// only ever sees hashes and ciphertext.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/panayot-marinov/password-vault/internal/client/config"
	"github.com/panayot-marinov/password-vault/internal/client/conn"
	"github.com/panayot-marinov/password-vault/internal/client/session"
	"github.com/panayot-marinov/password-vault/internal/protocol"
)

type App struct {
	config  *config.Config
	client  *conn.Client
	session *session.Session
	reader  *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	client, err := conn.Dial(c.ServerAddr)
	if err != nil {
		log.Printf("error connecting to server: %s", err.Error())
		return nil, err
	}

	app := &App{
		config: c,
		client: client,
		reader: bufio.NewReader(os.Stdin),
	}
	app.session = session.New(c.AutoLogoutTimeout, app.autoLogoutFailed)

	return app, nil
}

// autoLogoutFailed runs on the timer goroutine when the synthesized logout
// could not be sent. Closing the connection makes the server's disconnect
// cleanup drop the session, so both sides converge on logged out.
func (a *App) autoLogoutFailed(err error) {
	log.Printf("%s; closing connection", err.Error())
	if cerr := a.client.Close(); cerr != nil {
		log.Printf("close after failed auto-logout: %s", cerr.Error())
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	log.Println("Welcome to the password vault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)

	// Leaving with an active session still sends exactly one logout.
	if a.session.IsLoggedIn() {
		if err := a.session.Logout(); err != nil {
			log.Printf("logout on exit failed: %s", err.Error())
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsLoggedIn()
}

func (a *App) getStatus() string {
	if u := a.session.Username(); u != "" {
		return fmt.Sprintf("(%s)", u)
	}
	return ""
}

// roundtrip sends one request and renews the inactivity deadline on every
// successful send, regardless of the response kind.
func (a *App) roundtrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	resp, err := a.client.Roundtrip(ctx, req)
	if err != nil {
		return nil, err
	}
	a.session.Touch()
	return resp, nil
}

// logoutSender builds the one-shot logout transmitter handed to the session.
// Whichever logout path wins the race invokes it.
func (a *App) logoutSender(username string) session.SendFunc {
	return func() error {
		req, err := protocol.NewLogoutRequest(username)
		if err != nil {
			return err
		}
		resp, err := a.client.Roundtrip(context.Background(), req)
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return fmt.Errorf("logout rejected: %s", resp.Kind)
		}
		return nil
	}
}
