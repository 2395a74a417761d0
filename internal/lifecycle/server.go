// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/holdtotalk/daemon/internal/logger"
)

const defaultIdleTimeout = 30 * time.Second

// Handler answers one Request.
type Handler func(req Request) Response

// Server is the control-socket listener: singleton enforcement via
// ping-before-bind, owner-only socket permissions, per-connection peer-UID
// verification, and a per-peer rate limiter.
type Server struct {
	path string
	log  logger.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	listener net.Listener
	limiter  *rateLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewServer constructs a server bound to path, not yet listening.
func NewServer(path string, log logger.Logger) *Server {
	return &Server{
		path:     path,
		log:      log,
		handlers: make(map[string]Handler),
		limiter:  newRateLimiter(defaultMinInterval),
		stopCh:   make(chan struct{}),
	}
}

// Register associates a handler with a command name.
func (s *Server) Register(command string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[command] = h
}

// AlreadyRunning attempts Ping against an existing socket at path and
// reports whether a live daemon answered, implementing the
// singleton-enforcement startup check.
func AlreadyRunning(path string) bool {
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	if err := WriteEnvelope(conn, Envelope{ID: 0, Request: &Request{Command: CmdPing}}); err != nil {
		return false
	}
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	env, err := ReadEnvelope(conn)
	if err != nil {
		return false
	}
	return env.Response != nil && env.Response.Kind == RespPong
}

// Start refuses to bind if a prior instance answers Ping, removes a stale
// socket file, binds with owner-only permissions, and launches the accept
// loop.
func (s *Server) Start() error {
	if AlreadyRunning(s.path) {
		return errors.New("lifecycle: another instance is already running")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.RemoveAll(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = ln.Close()
		return err
	}
	s.listener = ln

	go s.acceptLoop()
	s.log.Info("control socket listening on %s", s.path)
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("control socket accept error: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	uid, err := peerUID(conn)
	if err == nil && uid != uint32(os.Getuid()) {
		s.log.Warning("rejecting control connection from uid %d", uid)
		return
	}

	_ = conn.SetDeadline(time.Now().Add(defaultIdleTimeout))

	env, err := ReadEnvelope(conn)
	if err != nil {
		return
	}
	if env.Request == nil {
		return
	}

	if !s.limiter.Allow(uid, env.Request.Command, time.Now()) {
		_ = WriteEnvelope(conn, Envelope{ID: env.ID, Response: ptr(errorResponse("rate limited"))})
		return
	}

	resp := s.dispatch(*env.Request)
	_ = WriteEnvelope(conn, Envelope{ID: env.ID, Response: &resp})
}

func (s *Server) dispatch(req Request) Response {
	if req.Command == CmdPing {
		return Response{Kind: RespPong}
	}

	s.mu.RLock()
	h, ok := s.handlers[req.Command]
	s.mu.RUnlock()
	if !ok {
		return errorResponse("unknown command: " + req.Command)
	}
	return h(req)
}

// Stop closes the listener and removes the socket file. Safe to call more
// than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if err := os.RemoveAll(s.path); err != nil && !os.IsNotExist(err) {
			s.log.Debug("failed to remove control socket: %v", err)
		}
	})
}

func ptr[T any](v T) *T { return &v }
