// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/fiforelay/fifo"
	"github.com/bureau-foundation/fiforelay/lib/netutil"
)

// DialFunc opens the connection to address. net.Dialer.DialContext
// satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config configures a Session.
type Config struct {
	// Target is required.
	Target Target

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Per-line traffic is logged at Debug (outbound) and through
	// the sink (inbound); lifecycle events at Info; failures at Error.
	Logger *slog.Logger

	// Sink receives inbound lines. If nil, lines are logged and
	// mirrored into the "in" pipe.
	Sink LineSink

	// Metrics records activity. May be nil.
	Metrics *Metrics

	// DialTimeout bounds DNS resolution plus TCP connect. Zero means no
	// bound other than the context passed to Connect.
	DialTimeout time.Duration

	// Dial replaces the default net.Dialer. Used to route connections
	// through a custom transport, and by tests.
	Dial DialFunc
}

// Session is one relay between a pipe pair and a TCP connection. A
// Session is single-use: once it reaches StateTerminated or StateFailed
// it cannot be restarted.
type Session struct {
	config  Config
	pipes   *fifo.Pair
	logger  *slog.Logger
	metrics *Metrics

	state      atomic.Int32
	dialing    atomic.Bool
	connection net.Conn
}

// New validates the target and prepares its pipe pair. No network
// activity happens until Connect.
func New(config Config) (*Session, error) {
	if err := config.Target.Validate(); err != nil {
		return nil, err
	}

	pipes, err := fifo.Prepare(config.Target.BaseDirectory, config.Target.Hostname)
	if err != nil {
		return nil, fmt.Errorf("relay: preparing pipes: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		"host", config.Target.Hostname,
		"identity", config.Target.Identity,
	)
	for _, path := range pipes.Reused {
		logger.Info("reusing existing pipe", "path", path)
	}

	session := &Session{
		config:  config,
		pipes:   pipes,
		logger:  logger,
		metrics: config.Metrics,
	}
	session.setState(StateIdle)
	return session, nil
}

// Pipes returns the prepared pipe pair.
func (s *Session) Pipes() *fifo.Pair { return s.pipes }

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
	s.metrics.observeState(state)
}

// transition moves the session from one state to another. It reports
// false, leaving the state alone, if the session is not in from.
func (s *Session) transition(from, to State) bool {
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	s.metrics.observeState(to)
	return true
}

// Connect dials the target. It is attempted once; on failure the
// session moves to StateFailed and a *ConnectError is returned.
func (s *Session) Connect(ctx context.Context) error {
	if s.State() != StateIdle || !s.dialing.CompareAndSwap(false, true) {
		return fmt.Errorf("relay: Connect called in state %s", s.State())
	}

	dial := s.config.Dial
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	if s.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.DialTimeout)
		defer cancel()
	}

	address := s.config.Target.Address()
	s.logger.Info("connecting", "address", address)
	connection, err := dial(ctx, "tcp", address)
	if err != nil {
		s.transition(StateIdle, StateFailed)
		s.logger.Error("connect failed", "address", address, "error", err)
		return &ConnectError{Address: address, Err: err}
	}
	if tcpConnection, ok := connection.(*net.TCPConn); ok {
		_ = tcpConnection.SetNoDelay(true)
	}

	s.connection = connection
	s.transition(StateIdle, StateConnected)
	s.logger.Info("connected",
		"local_addr", connection.LocalAddr(),
		"remote_addr", connection.RemoteAddr(),
	)
	return nil
}

// Close releases the connection of a session that connected but never
// relayed. Relay closes the connection itself; calling Close afterwards
// is harmless.
func (s *Session) Close() error {
	if !s.transition(StateConnected, StateTerminated) {
		return nil
	}
	return s.connection.Close()
}

// directionResult is the outcome of one forwarding direction.
type directionResult struct {
	direction Direction
	err       error
}

// Relay runs both forwarding directions until the session ends and
// returns the cause. It returns nil when the peer closes the connection
// or ctx is cancelled. Both directions have exited when Relay returns.
func (s *Session) Relay(ctx context.Context) error {
	if !s.transition(StateConnected, StateRelaying) {
		return fmt.Errorf("relay: Relay called in state %s", s.State())
	}
	defer s.setState(StateTerminated)

	connection := s.connection
	defer connection.Close()

	pipe, err := s.pipes.OpenOutbound()
	if err != nil {
		return &ReadError{Direction: Outbound, Err: err}
	}
	defer pipe.Close()

	sink := s.config.Sink
	if sink == nil {
		inbound := s.pipes.InboundWriter()
		defer inbound.Close()
		sink = MultiSink{LogSink{Logger: s.logger}, WriterSink{Writer: inbound}}
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	watcher, err := fifo.Watch(s.pipes, func(path string) {
		cancel(fmt.Errorf("%w: %s", ErrPipeRemoved, path))
	}, s.logger)
	if err != nil {
		s.logger.Warn("pipe removal will not be detected", "error", err)
	} else {
		defer watcher.Close()
	}

	results := make(chan directionResult, 2)
	go func() {
		results <- directionResult{Outbound, s.forward(Outbound, pipe, s.sendLine(connection))}
	}()
	go func() {
		results <- directionResult{Inbound, s.forward(Inbound, connection, s.deliverLine(sink))}
	}()
	s.logger.Info("relaying", "out_pipe", s.pipes.Out, "in_pipe", s.pipes.In)

	var first *directionResult
	select {
	case result := <-results:
		first = &result
	case <-ctx.Done():
	}

	// Unblock whichever direction is still running.
	connection.Close()
	pipe.Close()
	pending := 2
	if first != nil {
		pending = 1
	}
	for ; pending > 0; pending-- {
		result := <-results
		if result.err != nil && !netutil.IsExpectedCloseError(result.err) {
			s.logger.Debug("direction failed during teardown",
				"direction", result.direction,
				"error", result.err,
			)
		}
	}

	if first == nil {
		cause := context.Cause(ctx)
		if errors.Is(cause, ErrPipeRemoved) {
			s.logger.Error("session terminated", "error", cause)
			return cause
		}
		s.logger.Info("session stopped")
		return nil
	}
	if first.err != nil {
		s.logger.Error("session terminated", "direction", first.direction, "error", first.err)
		return first.err
	}
	s.logger.Info("session ended", "direction", first.direction)
	return nil
}

// forward reads newline-delimited lines from source and hands each to
// deliver, in order. A final fragment without a delimiter is delivered
// before EOF. EOF ends the direction without error; a delivery error or
// any other read error ends it with that error.
func (s *Session) forward(direction Direction, source io.Reader, deliver func(line []byte) error) error {
	reader := bufio.NewReader(source)
	for {
		line, readError := reader.ReadBytes('\n')
		if len(line) > 0 && (readError == nil || errors.Is(readError, io.EOF)) {
			if err := deliver(line); err != nil {
				return err
			}
			s.metrics.observeLine(direction, len(line))
		}
		if readError != nil {
			if errors.Is(readError, io.EOF) {
				s.logger.Debug("source closed", "direction", direction)
				return nil
			}
			return &ReadError{Direction: direction, Err: readError}
		}
	}
}

// sendLine writes each line to the connection in its own Write call.
func (s *Session) sendLine(connection io.Writer) func([]byte) error {
	return func(line []byte) error {
		if _, err := connection.Write(line); err != nil {
			return &WriteError{Direction: Outbound, Err: err}
		}
		s.logger.Debug("sent", "line", string(trimDelimiter(line)))
		return nil
	}
}

// deliverLine hands each line to sink. Sink failures are counted and
// never end the direction. A missing reader on the "in" pipe is the
// normal case and is not logged.
func (s *Session) deliverLine(sink LineSink) func([]byte) error {
	return func(line []byte) error {
		if err := sink.Deliver(line); err != nil {
			s.metrics.observeSinkError()
			if !errors.Is(err, fifo.ErrNoReader) {
				s.logger.Debug("sink rejected line", "error", err)
			}
		}
		return nil
	}
}

// Run prepares the pipes, connects, and relays until the session ends.
func Run(ctx context.Context, config Config) error {
	session, err := New(config)
	if err != nil {
		return err
	}
	if err := session.Connect(ctx); err != nil {
		return err
	}
	return session.Relay(ctx)
}
