package kvserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/memkv-go/internal/resp"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout is the timeout for reading a command (default: 30s).
	// Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 30s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP
	// (default: 1000). Set to 0 to disable rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
	}
}

// Server accepts connections and runs one serve loop per connection.
// The keyspace handed to New is the only state shared across loops.
type Server struct {
	cfg      *Config
	handler  *CommandHandler
	logger   *slog.Logger
	metrics  *metric.Registry
	limiters *ipLimiters

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a server over the shared store.
func New(cfg *Config, store *memory.Store, metrics *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}

	s := &Server{
		cfg:     cfg,
		handler: NewCommandHandler(store),
		logger:  logger,
		metrics: metrics,
	}
	if cfg.RateLimit > 0 {
		s.limiters = newIPLimiters(cfg.RateLimit)
	}
	return s
}

// Start binds the listen address and begins accepting connections in a
// background goroutine.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)

	s.logger.Info("kv server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx); err != nil && s.running.Load() {
			s.logger.Error("kv server accept loop error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, useful when Addr was ":0".
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting and waits for in-flight connections, bounded
// by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// serveConn drives exactly one connection: decode a command, dispatch it
// against the shared store, serialize the reply into the per-connection
// output buffer, write it in full, repeat. The loop ends on orderly EOF,
// a transport-tier decode failure, or a write failure.
func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer c.Close()

	connID := ulid.Make().String()
	log := s.logger.With("conn_id", connID, "remote", c.RemoteAddr().String())
	log.Debug("connection accepted")
	defer log.Debug("connection closed")

	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()

	reader := resp.NewReader(c)
	var out []byte

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// First byte: allow the idle timeout, so a connection can sit
		// quietly between commands.
		if err := c.SetReadDeadline(time.Now().Add(s.idleTimeout())); err != nil {
			return
		}
		if _, err := reader.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) && !isTimeout(err) {
				log.Debug("connection read error", "error", err)
			}
			return
		}

		// After the first byte: tighten to the per-command read timeout.
		if err := c.SetReadDeadline(time.Now().Add(s.readTimeout())); err != nil {
			return
		}

		value, err := reader.ReadValue()
		if err != nil {
			s.failConn(c, log, err)
			return
		}

		cmd, err := Parse(value)
		if err != nil {
			s.failConn(c, log, err)
			return
		}

		if s.limiters != nil && !s.limiters.allow(remoteIP(c)) {
			out = resp.Error("rate limit exceeded").Append(out[:0])
			if !s.write(c, out) {
				return
			}
			continue
		}

		start := time.Now()
		reply := s.handler.Handle(cmd)
		kind := cmd.Kind.String()
		s.metrics.CommandsTotal.WithLabelValues(kind).Inc()
		s.metrics.CommandDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		out = reply.Append(out[:0])
		if !s.write(c, out) {
			return
		}
	}
}

// failConn reports a transport-tier failure. A best-effort error notice
// is written before the connection is closed by the caller.
func (s *Server) failConn(c net.Conn, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, io.EOF):
		return
	case isTimeout(err):
		log.Debug("connection timed out")
		return
	case errors.Is(err, resp.ErrLimitExceeded):
		log.Warn("protocol limit exceeded", "error", err)
		s.write(c, resp.Error("protocol limit exceeded").Append(nil))
	case errors.Is(err, resp.ErrProtocol), errors.Is(err, io.ErrUnexpectedEOF):
		log.Debug("protocol error", "error", err)
		s.write(c, resp.Error("protocol error: "+err.Error()).Append(nil))
	default:
		log.Debug("connection error", "error", err)
	}
}

// write sends buf in full under the write deadline. It reports whether
// the connection is still usable.
func (s *Server) write(c net.Conn, buf []byte) bool {
	if err := c.SetWriteDeadline(time.Now().Add(s.writeTimeout())); err != nil {
		return false
	}
	_, err := c.Write(buf)
	return err == nil
}

func (s *Server) readTimeout() time.Duration {
	if s.cfg.ReadTimeout > 0 {
		return s.cfg.ReadTimeout
	}
	return 30 * time.Second
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.WriteTimeout > 0 {
		return s.cfg.WriteTimeout
	}
	return 30 * time.Second
}

func (s *Server) idleTimeout() time.Duration {
	if s.cfg.IdleTimeout > 0 {
		return s.cfg.IdleTimeout
	}
	return 5 * time.Minute
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func remoteIP(c net.Conn) string {
	addr := c.RemoteAddr().String()
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
