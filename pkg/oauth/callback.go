package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"k8s.io/utils/clock"
)

const (
	// DefaultCallbackPort is the fixed local port the provider redirects to.
	DefaultCallbackPort = 8787

	// DefaultCallbackTimeout bounds how long the server waits for the redirect.
	DefaultCallbackTimeout = 120 * time.Second

	// shutdownGrace lets the final response flush before the socket closes.
	shutdownGrace = 100 * time.Millisecond

	// shutdownTimeout bounds the graceful shutdown itself.
	shutdownTimeout = 2 * time.Second
)

// State is the lifecycle state of a CallbackServer.
type State int

const (
	StateIdle State = iota
	StateListening
	StateResolved
	StateRejected
	StateTimedOut
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed_out"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s >= StateResolved
}

type callbackResult struct {
	code string
	err  error
}

// CallbackServer is a one-shot local HTTP server that captures the browser
// redirect carrying the authorization code. The first request either resolves
// it (code present) or rejects it (code missing); if neither happens before the
// timeout it times out. Whatever happens first wins and every later attempt to
// complete it is a no-op.
type CallbackServer struct {
	port    int
	timeout time.Duration
	clock   clock.Clock
	logger  hclog.Logger

	mu        sync.Mutex
	state     State
	code      string
	server    *http.Server
	listeners []net.Listener
	// closing is set once a request has claimed completion and owns the
	// graceful close that follows its response.
	closing bool

	claimOnce sync.Once
	closeOnce sync.Once
	resultCh  chan callbackResult
	done      chan struct{}
}

// CallbackOption configures a CallbackServer.
type CallbackOption func(*CallbackServer)

// WithTimeout overrides DefaultCallbackTimeout.
func WithTimeout(d time.Duration) CallbackOption {
	return func(s *CallbackServer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock sets the clock driving the timeout.
func WithClock(c clock.Clock) CallbackOption {
	return func(s *CallbackServer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCallbackLogger sets the logger.
func WithCallbackLogger(logger hclog.Logger) CallbackOption {
	return func(s *CallbackServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCallbackServer creates a callback server for the given port. Port 0 binds
// an ephemeral port, which tests use; the real flow uses DefaultCallbackPort.
func NewCallbackServer(port int, opts ...CallbackOption) *CallbackServer {
	s := &CallbackServer{
		port:     port,
		timeout:  DefaultCallbackTimeout,
		clock:    clock.RealClock{},
		logger:   hclog.NewNullLogger(),
		resultCh: make(chan callbackResult, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the port and begins listening. The timeout window starts now.
// A bind failure is returned immediately, wrapped around ErrBind.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("callback server already started (state %s)", s.state)
	}

	listeners, err := s.listenLoopback()
	if err != nil {
		return fmt.Errorf("%w on port %d: %w", ErrBind, s.port, err)
	}

	s.listeners = listeners
	s.server = &http.Server{
		Handler:      http.HandlerFunc(s.handleCallback),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.state = StateListening

	timer := s.clock.NewTimer(s.timeout)
	go s.watchTimeout(timer)

	for _, ln := range listeners {
		go func(srv *http.Server, ln net.Listener) {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Warn("callback server stopped unexpectedly", "addr", ln.Addr().String(), "error", err)
				s.finish(StateStopped, callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
				s.close(false)
			}
		}(s.server, ln)
		s.logger.Debug("callback server listening", "addr", ln.Addr().String(), "timeout", s.timeout)
	}
	return nil
}

// listenLoopback binds 127.0.0.1 and, when the host has one, ::1 on the same
// port, so http://localhost:<port> answers whichever address the browser
// resolves. A fixed port already taken on ::1 is a bind failure; any other
// IPv6 error leaves the server on IPv4 only.
func (s *CallbackServer) listenLoopback() ([]net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port)))
	if err != nil {
		return nil, err
	}
	port := ln.Addr().(*net.TCPAddr).Port

	ln6, err := net.Listen("tcp", net.JoinHostPort("::1", strconv.Itoa(port)))
	switch {
	case err == nil:
		return []net.Listener{ln, ln6}, nil
	case s.port != 0 && errors.Is(err, syscall.EADDRINUSE):
		ln.Close()
		return nil, err
	default:
		s.logger.Debug("ipv6 loopback unavailable, listening on ipv4 only", "error", err)
		return []net.Listener{ln}, nil
	}
}

// URL returns the redirect target for this server, e.g. http://localhost:8787.
// Only valid after Start.
func (s *CallbackServer) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	port := s.port
	if len(s.listeners) > 0 {
		if addr, ok := s.listeners[0].Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// State returns the current lifecycle state.
func (s *CallbackServer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Code returns the resolved authorization code, or "" if not resolved.
func (s *CallbackServer) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Wait blocks until the server resolves, rejects, times out or is stopped,
// or until ctx is done. Cancelling ctx stops the server.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case r := <-s.resultCh:
		return r.code, r.err
	case <-ctx.Done():
		s.Stop()
		return "", ctx.Err()
	}
}

// Stop releases the port. It resolves a still-pending Wait with ErrStopped
// and is safe to call more than once. If a request already completed the
// server, its response is left to finish and the scheduled close releases the
// port instead.
func (s *CallbackServer) Stop() {
	s.finish(StateStopped, callbackResult{err: ErrStopped})

	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	if closing {
		return
	}
	s.close(false)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	s.logger.Debug("callback received", "path", r.URL.Path, "has_code", code != "")

	// Claim before writing so a concurrent timeout cannot also win, but only
	// publish once the response has been written.
	if !s.claim() {
		http.Error(w, "Login already completed", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	if code == "" {
		http.Error(w, "No code received", http.StatusBadRequest)
		flush(w)
		s.publish(StateRejected, callbackResult{err: ErrNoCode})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(successHTML)); err != nil {
		s.logger.Warn("failed to write success page", "error", err)
	}
	flush(w)

	s.mu.Lock()
	s.code = code
	s.mu.Unlock()
	s.publish(StateResolved, callbackResult{code: code})
}

// publish records the outcome of a served request and closes the server
// after shutdownGrace.
func (s *CallbackServer) publish(state State, r callbackResult) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.resultCh <- r
	time.AfterFunc(shutdownGrace, func() { s.close(true) })
}

// finish claims the single completion slot without serving a response and
// publishes r. Every state except StateStopped closes the server itself.
// It returns false if something else already completed.
func (s *CallbackServer) finish(state State, r callbackResult) bool {
	if !s.claim() {
		return false
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if state != StateStopped {
		s.close(false)
	}
	s.resultCh <- r
	return true
}

func (s *CallbackServer) claim() bool {
	claimed := false
	s.claimOnce.Do(func() { claimed = true })
	return claimed
}

func (s *CallbackServer) watchTimeout(timer clock.Timer) {
	select {
	case <-timer.C():
		if s.finish(StateTimedOut, callbackResult{err: fmt.Errorf("%w after %s", ErrTimeout, s.timeout)}) {
			s.logger.Debug("callback server timed out", "timeout", s.timeout)
		}
	case <-s.done:
		timer.Stop()
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// close unbinds the port. graceful waits for in-flight responses to finish.
func (s *CallbackServer) close(graceful bool) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		srv := s.server
		s.mu.Unlock()

		close(s.done)
		if srv == nil {
			return
		}

		var err error
		if graceful {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = srv.Shutdown(ctx)
		} else {
			err = srv.Close()
		}
		if err != nil {
			s.logger.Warn("callback server close error", "error", err)
		}
		s.logger.Debug("callback server closed", "graceful", graceful)
	})
}
