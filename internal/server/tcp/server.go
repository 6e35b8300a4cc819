// Package tcp implements the vault's connection server: a TCP listener
// multiplexing newline-delimited JSON requests from many connections into a
// single dispatch goroutine.
//
// Per-connection reader goroutines do nothing but frame lines; every decoded
// request funnels through one channel into one dispatcher, so request
// handling across connections is strictly interleaved, never parallel. That
// single dispatcher is the mutual-exclusion mechanism the vault state
// machine relies on.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/logging"
	"github.com/panayot-marinov/password-vault/internal/protocol"
)

// MaxLineBytes caps one wire line. Anything longer is a protocol violation
// and closes the connection.
const MaxLineBytes = 64 * 1024

// Handler executes one request and produces its single response.
type Handler interface {
	Handle(ctx context.Context, connID string, req *protocol.Request) *protocol.Response
	HandleDisconnect(ctx context.Context, connID string)
}

type eventKind int

const (
	eventRequest eventKind = iota
	eventDisconnect
)

// event is one unit of work for the dispatch loop.
type event struct {
	kind eventKind
	conn *connection
	line []byte
}

type connection struct {
	id string
	c  net.Conn
}

type Server struct {
	address string
	handler Handler
	logger  logging.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]*connection
	wg       sync.WaitGroup
}

func NewServer(address string, handler Handler, logger logging.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		logger:  logger.With("module", "tcp_server"),
		conns:   make(map[string]*connection),
	}
}

// Addr returns the bound listener address, once Run has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on the configured address and serves until ctx is canceled.
// Cancellation closes the listener and all connections, which unblocks the
// accept and read loops so they can observe the stop.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	events := make(chan event)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping TCP server...")
		listener.Close()
		s.closeAll()
	}()

	s.logger.Info(ctx, "Starting TCP server", "address", listener.Addr().String())

	// The dispatch loop: the single goroutine that touches vault state.
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		for ev := range events {
			s.dispatch(ctx, ev)
		}
	}()

	for {
		c, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error(ctx, "accept error", "error", err)
			break
		}

		id, err := common.MakeRandHexString(16)
		if err != nil {
			s.logger.Error(ctx, "connection id error", "error", err)
			c.Close()
			continue
		}

		conn := &connection{id: id, c: c}
		s.register(conn)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.readLoop(ctx, conn, events)
		}()
	}

	// All readers must be gone before the event channel closes.
	s.wg.Wait()
	close(events)
	<-dispatchDone

	return nil
}

// readLoop frames newline-delimited requests off one connection and feeds
// the dispatcher. EOF or any read error ends the connection; only that
// connection is affected.
func (s *Server) readLoop(ctx context.Context, conn *connection, events chan<- event) {
	defer func() {
		s.unregister(conn)
		events <- event{kind: eventDisconnect, conn: conn}
	}()

	scanner := bufio.NewScanner(conn.c)
	scanner.Buffer(make([]byte, 4096), MaxLineBytes)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		events <- event{kind: eventRequest, conn: conn, line: line}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
		s.logger.Warn(ctx, "connection read error", "conn", conn.id, "error", err)
	}
}

// dispatch handles one event. Runs only on the dispatch goroutine.
func (s *Server) dispatch(ctx context.Context, ev event) {
	if ev.kind == eventDisconnect {
		s.handler.HandleDisconnect(ctx, ev.conn.id)
		return
	}

	resp := s.handleLine(ctx, ev.conn, ev.line)

	out, err := protocol.EncodeResponse(resp)
	if err != nil {
		s.logger.Error(ctx, "response encoding error", "conn", ev.conn.id, "error", err)
		out, _ = protocol.EncodeResponse(&protocol.Response{Kind: protocol.ResponseInternalServerError})
	}

	if _, err := ev.conn.c.Write(out); err != nil {
		// A dead peer costs only its own connection.
		s.logger.Warn(ctx, "connection write error", "conn", ev.conn.id, "error", err)
		ev.conn.c.Close()
	}
}

// handleLine converts decode and dispatch failures into error responses
// rather than letting them escape the loop.
func (s *Server) handleLine(ctx context.Context, conn *connection, line []byte) *protocol.Response {
	req, err := protocol.DecodeRequest(line)
	if err != nil {
		s.logger.Warn(ctx, "request decoding error", "conn", conn.id, "error", err)
		return &protocol.Response{Kind: protocol.ResponseRequestNotSupported}
	}

	s.logger.Debug(ctx, "request", "conn", conn.id, "kind", string(req.Kind), "username", req.Username)
	return s.handler.Handle(ctx, conn.id, req)
}

func (s *Server) register(conn *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.id] = conn
}

func (s *Server) unregister(conn *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn.id)
	conn.c.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.c.Close()
	}
}
