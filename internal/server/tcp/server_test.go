package tcp

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panayot-marinov/password-vault/internal/logging"
	"github.com/panayot-marinov/password-vault/internal/protocol"
	"github.com/panayot-marinov/password-vault/internal/server/accounts"
	"github.com/panayot-marinov/password-vault/internal/server/breach"
	"github.com/panayot-marinov/password-vault/internal/server/credentials"
	"github.com/panayot-marinov/password-vault/internal/server/vault"
)

// startServer runs a server with an in-memory vault on a random port and
// returns its address.
func startServer(t *testing.T) (string, context.CancelFunc) {
	t.Helper()

	service := vault.NewService(
		accounts.NewInMemoryRepository(),
		credentials.NewInMemoryRepository(),
		&breach.Static{},
		logging.NewNopLogger(),
	)
	server := NewServer("127.0.0.1:0", service, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for server.Addr() == nil {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	return server.Addr().String(), cancel
}

func roundtrip(t *testing.T, c net.Conn, r *bufio.Reader, req *protocol.Request) *protocol.Response {
	t.Helper()

	line, err := protocol.EncodeRequest(req)
	require.NoError(t, err)
	_, err = c.Write(line)
	require.NoError(t, err)

	reply, err := r.ReadBytes('\n')
	require.NoError(t, err)

	resp, err := protocol.DecodeResponse(reply)
	require.NoError(t, err)
	return resp
}

func TestServer_RegisterLoginStoreGet(t *testing.T) {
	addr, _ := startServer(t)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	r := bufio.NewReader(c)

	register, err := protocol.NewRegisterRequest("alice", "h1", "h1", protocol.NewEncryptionData(1000, []byte("salt")))
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseRegisterSuccess, roundtrip(t, c, r, register).Kind)

	login, err := protocol.NewLoginRequest("alice", "h1")
	require.NoError(t, err)
	resp := roundtrip(t, c, r, login)
	require.Equal(t, protocol.ResponseLoginSuccess, resp.Kind)

	enc, err := protocol.DecodeEncryptionData(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1000, enc.Iterations)

	store, err := protocol.NewStorePasswordRequest("alice", "app1", "alice2", "ct", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseStorePasswordSuccess, roundtrip(t, c, r, store).Kind)

	get, err := protocol.NewGetPasswordRequest("alice", "app1", "alice2")
	require.NoError(t, err)
	got := roundtrip(t, c, r, get)
	require.Equal(t, protocol.ResponseGetPasswordSuccess, got.Kind)
	assert.Equal(t, "ct", got.Body)
}

func TestServer_MalformedAndUnknownRequests(t *testing.T) {
	addr, _ := startServer(t)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	r := bufio.NewReader(c)

	// Malformed JSON is answered, not fatal for the connection.
	_, err = c.Write([]byte("{broken\n"))
	require.NoError(t, err)
	reply, err := r.ReadBytes('\n')
	require.NoError(t, err)
	resp, err := protocol.DecodeResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseRequestNotSupported, resp.Kind)

	// Unknown kind gets the same response through the sentinel path.
	_, err = c.Write([]byte(`{"kind":"TELEPORT","username":"alice"}` + "\n"))
	require.NoError(t, err)
	reply, err = r.ReadBytes('\n')
	require.NoError(t, err)
	resp, err = protocol.DecodeResponse(reply)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseRequestNotSupported, resp.Kind)

	// The connection still serves valid requests afterwards.
	register, err := protocol.NewRegisterRequest("alice", "h1", "h1", protocol.NewEncryptionData(1000, []byte("salt")))
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseRegisterSuccess, roundtrip(t, c, r, register).Kind)
}

func TestServer_DisconnectLogsOutSession(t *testing.T) {
	service := vault.NewService(
		accounts.NewInMemoryRepository(),
		credentials.NewInMemoryRepository(),
		&breach.Static{},
		logging.NewNopLogger(),
	)
	server := NewServer("127.0.0.1:0", service, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	for server.Addr() == nil {
		time.Sleep(5 * time.Millisecond)
	}

	c, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	r := bufio.NewReader(c)

	register, err := protocol.NewRegisterRequest("alice", "h1", "h1", protocol.NewEncryptionData(1000, []byte("salt")))
	require.NoError(t, err)
	require.Equal(t, protocol.ResponseRegisterSuccess, roundtrip(t, c, r, register).Kind)

	login, err := protocol.NewLoginRequest("alice", "h1")
	require.NoError(t, err)
	require.Equal(t, protocol.ResponseLoginSuccess, roundtrip(t, c, r, login).Kind)
	require.True(t, service.IsLoggedIn("alice"))

	// Dropping the connection must free the login slot.
	c.Close()
	assert.Eventually(t, func() bool { return !service.IsLoggedIn("alice") },
		5*time.Second, 10*time.Millisecond)
}

func TestServer_IOErrorClosesOnlyThatConnection(t *testing.T) {
	addr, _ := startServer(t)

	first, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	first.Close()

	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer second.Close()
	r := bufio.NewReader(second)

	register, err := protocol.NewRegisterRequest("bob", "h1", "h1", protocol.NewEncryptionData(1000, []byte("salt")))
	require.NoError(t, err)
	assert.Equal(t, protocol.ResponseRegisterSuccess, roundtrip(t, second, r, register).Kind)
}
