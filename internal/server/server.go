package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/juju/ratelimit"

	"github.com/marcelocantos/dsh/internal/builtin"
	"github.com/marcelocantos/dsh/internal/config"
	"github.com/marcelocantos/dsh/internal/ipc"
	"github.com/marcelocantos/dsh/internal/logging"
	"github.com/marcelocantos/dsh/internal/pipeline"
	"github.com/marcelocantos/dsh/internal/shell"
)

// Server accepts remote shell connections and runs each request through a
// shell session bound to that connection.
type Server struct {
	cfg    config.ServerConfig
	shell  *shell.Shell
	logger *logging.Logger
	dir    string

	stopping atomic.Bool
	stopOnce sync.Once

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	active sync.WaitGroup
}

// New creates a server. The shell should be built with the remote built-in
// set so that stop-server is recognised.
func New(cfg config.ServerConfig, sh *shell.Shell, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	dir, err := os.Getwd()
	if err != nil {
		dir = "/"
	}
	return &Server{
		cfg:    cfg,
		shell:  sh,
		logger: logger,
		dir:    dir,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured interface and port and calls Serve.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.PidFile != "" {
		if err := checkPidFile(s.cfg.PidFile); err != nil {
			return err
		}
	}

	addr := ipc.ServerAddress(s.cfg.Interface, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if s.cfg.PidFile != "" {
		if err := writePidFile(s.cfg.PidFile); err != nil {
			ln.Close()
			return fmt.Errorf("write pid: %w", err)
		}
		defer os.Remove(s.cfg.PidFile)
	}

	s.logger.Info("listening", "addr", ln.Addr().String(), "threaded", s.cfg.Threaded)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Stop is called or ctx is cancelled,
// then waits for open sessions to finish. The listener is closed on return.
//
// In threaded mode each connection gets its own goroutine. Otherwise
// connections are served one at a time on the calling goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancellation stops the listener and hangs up on idle clients.
	go func() {
		<-ctx.Done()
		s.Stop()
		s.closeConns()
	}()

	for !s.stopping.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if s.stopping.Load() {
				break
			}
			s.active.Wait()
			return fmt.Errorf("accept: %w", err)
		}

		s.track(conn, true)
		if !s.cfg.Threaded {
			s.handleConnection(ctx, conn)
			continue
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	s.logger.Info("server stopped")
	return nil
}

// Stop stops accepting connections. Sessions already open run until their
// clients leave. Stop may be called from any goroutine, any number of times.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ln != nil {
			s.ln.Close()
		}
	})
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.track(conn, false)
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	sess := builtin.NewSession(uuid.NewString(), s.dir, true)
	sess.Peer = peer
	logger := s.logger.With("session", sess.ID, "remote", peer)
	logger.Info("session opened")
	defer logger.Info("session closed")

	reader := ipc.NewReader(conn, s.cfg.MaxRequest)
	out := newConnWriter(conn, s.bucket())

	for {
		line, err := reader.ReadRequest()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.Warn("rdsh-error: communications error", "error", err)
			}
			return
		}

		res, _ := s.shell.RunLine(ctx, sess, line, pipeline.Streams{Stdout: out, Stderr: out})
		switch res.Kind {
		case pipeline.Exited:
			return
		case pipeline.StoppedServer:
			logger.Info("stop requested")
			s.Stop()
			return
		}

		if err := out.EOF(); err != nil {
			logger.Warn("rdsh-error: communications error", "error", err)
			return
		}
	}
}

func (s *Server) bucket() *ratelimit.Bucket {
	if s.cfg.OutputRate <= 0 {
		return nil
	}
	return ratelimit.NewBucketWithRate(float64(s.cfg.OutputRate), s.cfg.OutputRate)
}
