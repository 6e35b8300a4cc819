// Package conn implements the client side of the vault wire protocol:
// a TCP connection carrying newline-delimited JSON, one request per line
// out, one response per line back.
package conn

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/panayot-marinov/password-vault/internal/protocol"
)

// dialTimeout bounds connection establishment only. Established sockets
// carry no read or write deadline unless the caller's context has one.
const dialTimeout = 10 * time.Second

// Client is a single connection to the vault server. The foreground command
// loop and the background auto-logout task both send through the same Client;
// the mutex serializes whole roundtrips so their writes can never interleave
// on the socket.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the vault server at address.
func Dial(address string) (*Client, error) {
	c, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return &Client{conn: c, reader: bufio.NewReader(c)}, nil
}

// Roundtrip sends req and blocks until the matching response line arrives.
// The protocol is half-duplex per connection, so holding the lock across the
// read is what keeps responses paired with their requests.
//
// A context deadline, when present, is applied to the socket for the
// duration of the roundtrip.
func (c *Client) Roundtrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write(data); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return protocol.DecodeResponse(line)
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
