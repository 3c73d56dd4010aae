package deviceio

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/protocol"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// SessionFactory builds the per-connection Handlers for a newly accepted
// device. stationID is not known until the device identifies itself
// (e.g. via GET_STATUS or a config field), so the factory receives only
// the remote address at accept time; callers correlate sessions to
// stations via their own state.
type SessionFactory func(remote net.Addr) Handlers

// Server accepts device TCP connections and runs one Session per
// connection until the server is stopped.
type Server struct {
	cfg     config.DeviceServerConfig
	factory SessionFactory
	logger  logger.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
	listener net.Listener
}

// NewServer returns a Server that will listen on cfg.ListenAddr once
// Start is called.
func NewServer(cfg config.DeviceServerConfig, factory SessionFactory, log logger.Logger) *Server {
	return &Server{
		cfg:      cfg,
		factory:  factory,
		logger:   log,
		sessions: make(map[*Session]struct{}),
	}
}

// Start binds the listener and accepts connections until ctx is
// cancelled. It blocks the caller; run it in its own goroutine.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("device protocol server listening", "addr", s.cfg.ListenAddr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Warn("device accept error", "error", err)
				continue
			}
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	handlers := Handlers{}
	if s.factory != nil {
		handlers = s.factory(conn.RemoteAddr())
	}
	timeout := time.Duration(s.cfg.ReadTimeout) * time.Second
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	session := NewSessionWithTimeout(conn, handlers, s.logger, timeout)

	s.mu.Lock()
	s.sessions[session] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("device connected", "remote", conn.RemoteAddr().String())

	session.Run(ctx)

	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
	s.logger.Info("device disconnected", "remote", conn.RemoteAddr().String())
}

// Broadcast sends an event frame to every currently connected device.
func (s *Server) Broadcast(msgType protocol.MessageType, payload []byte) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.SendEvent(msgType, payload); err != nil {
			s.logger.Warn("broadcast failed", "remote", sess.state.Remote, "error", err)
		}
	}
}

// Stop closes the listener and waits briefly for in-flight sessions to
// observe cancellation and close their connections.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
	time.Sleep(10 * time.Millisecond)
}
