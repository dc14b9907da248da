package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	logx "rmnotify/pkg/logx"
)

const defaultShutdownTimeout = 5 * time.Second

type ServerConfig struct {
	Enabled         bool
	Addr            string
	ShutdownTimeout time.Duration
	Options
}

// Server manages the listener lifecycle; Apply starts, moves or stops it.
type Server struct {
	deps Deps
	log  logx.Logger

	mu   sync.Mutex
	srv  *http.Server
	ln   net.Listener
	addr string
	cfg  ServerConfig
}

func NewServer(d Deps, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{deps: d, log: log.With(logx.Component("httpapi"))}
}

// Apply brings the listener in line with cfg. A listen failure is returned
// and leaves the server stopped.
func (s *Server) Apply(ctx context.Context, cfg ServerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		s.stopLocked(ctx)
		s.cfg = cfg
		return nil
	}
	if s.srv != nil && sameConfig(s.cfg, cfg) {
		return nil
	}
	s.stopLocked(ctx)
	s.cfg = cfg
	return s.startLocked()
}

func sameConfig(a, b ServerConfig) bool {
	if a.Addr != b.Addr || a.Pprof != b.Pprof || len(a.CORSOrigins) != len(b.CORSOrigins) {
		return false
	}
	for i := range a.CORSOrigins {
		if a.CORSOrigins[i] != b.CORSOrigins[i] {
			return false
		}
	}
	return true
}

func (s *Server) startLocked() error {
	addr := s.cfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s.deps, s.cfg.Options, s.log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.Warn("http listen failed", logx.String("addr", addr), logx.Err(err))
		return err
	}
	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	listenAddr := s.addr
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("http server error", logx.String("addr", listenAddr), logx.Err(err))
		}
	}()
	s.log.Info("http api listening", logx.String("addr", s.addr), logx.Bool("pprof", s.cfg.Pprof))
	return nil
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	srv, ln, addr := s.srv, s.ln, s.addr
	s.srv, s.ln, s.addr = nil, nil, ""

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("http shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.log.Info("http api stopped", logx.String("addr", addr))
}

// Addr reports the actual listen address, empty when stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
