// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/fiforelay/lib/testutil"
)

const testTimeout = 5 * time.Second

// testServer accepts TCP connections on 127.0.0.1 and hands them to the
// test through accepted.
type testServer struct {
	listener net.Listener
	accepted chan net.Conn

	mutex       sync.Mutex
	connections []net.Conn
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := &testServer{listener: listener, accepted: make(chan net.Conn, 4)}
	t.Cleanup(func() {
		listener.Close()
		server.mutex.Lock()
		defer server.mutex.Unlock()
		for _, connection := range server.connections {
			connection.Close()
		}
	})

	go func() {
		for {
			connection, err := listener.Accept()
			if err != nil {
				return
			}
			server.mutex.Lock()
			server.connections = append(server.connections, connection)
			server.mutex.Unlock()
			server.accepted <- connection
		}
	}()
	return server
}

func (s *testServer) port() uint16 {
	return uint16(s.listener.Addr().(*net.TCPAddr).Port)
}

func (s *testServer) address() string {
	return s.listener.Addr().String()
}

func (s *testServer) accept(t *testing.T) net.Conn {
	t.Helper()
	return testutil.RequireReceive(t, s.accepted, testTimeout, "waiting for relay connection")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, server *testServer) Config {
	t.Helper()
	return Config{
		Target: Target{
			Hostname:      "127.0.0.1",
			Port:          server.port(),
			Identity:      "testnick",
			BaseDirectory: testutil.TempDir(t),
		},
		Logger:      discardLogger(),
		DialTimeout: testTimeout,
	}
}

// connectedSession builds and connects a session against server.
func connectedSession(t *testing.T, config Config) *Session {
	t.Helper()
	session, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return session
}

// startRelay runs session.Relay in a goroutine. Cancelling the returned
// context stops it; the channel receives Relay's result.
func startRelay(t *testing.T, session *Session) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan error, 1)
	go func() { results <- session.Relay(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-results:
		case <-time.After(testTimeout): //nolint:realclock test hang prevention
		}
	})
	return cancel, results
}

// openProducer opens the "out" pipe write-only, like an external
// producer. The open blocks until the relay has the pipe open.
func openProducer(t *testing.T, path string) *os.File {
	t.Helper()
	producer, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open producer: %v", err)
	}
	t.Cleanup(func() { producer.Close() })
	return producer
}

// channelSink forwards each delivered line to a channel.
type channelSink chan string

func (c channelSink) Deliver(line []byte) error {
	c <- string(line)
	return nil
}

// recordingConn records each Write call made on the wrapped connection
// and can inject read or write failures.
type recordingConn struct {
	net.Conn

	readError  error
	writeError error

	mutex  sync.Mutex
	writes []string
}

func (c *recordingConn) Read(p []byte) (int, error) {
	if c.readError != nil {
		return 0, c.readError
	}
	return c.Conn.Read(p)
}

func (c *recordingConn) Write(p []byte) (int, error) {
	if c.writeError != nil {
		return 0, c.writeError
	}
	c.mutex.Lock()
	c.writes = append(c.writes, string(p))
	c.mutex.Unlock()
	return c.Conn.Write(p)
}

func (c *recordingConn) recorded() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]string(nil), c.writes...)
}

// dialRecording returns a DialFunc that connects to server regardless of
// the requested address, wraps the connection in conn, and records the
// requested address.
func dialRecording(server *testServer, conn *recordingConn, addresses chan<- string) DialFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		if addresses != nil {
			addresses <- address
		}
		var dialer net.Dialer
		connection, err := dialer.DialContext(ctx, network, server.address())
		if err != nil {
			return nil, err
		}
		conn.Conn = connection
		return conn, nil
	}
}
