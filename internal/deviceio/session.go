// Package deviceio drives a single TCP connection to a field device,
// decoding frames with the protocol package's state machine and routing
// requests to the owning service's callbacks, per spec.md §4.2.
package deviceio

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/protocol"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// Handlers are the callbacks a Session dispatches decoded requests to.
// Any nil handler yields a well-formed but empty/failure response rather
// than dropping the frame.
type Handlers struct {
	OnMetricsRequest func(requested []uint8) []protocol.MetricTuple
	OnStatusRequest  func() protocol.StatusPayload
	OnCommand        func(cmdType uint8, params []byte) protocol.CommandResult
	// OnEvent fires for unsolicited, non-request frames the device sends
	// (METRICS_EVENT, THRESHOLD_EXCEEDED, DEVICE_STATE_CHANGE, ERROR).
	OnEvent func(msg protocol.Message)
}

// Session owns one device TCP connection: it reads bytes into the frame
// parser, dispatches decoded requests, and exposes SendEvent for
// unsolicited server-to-device pushes. All I/O for a single session is
// single-writer: only the read loop and SendEvent touch the connection,
// guarded by writeMu.
type Session struct {
	conn        net.Conn
	parser      *protocol.FrameParser
	handlers    Handlers
	logger      logger.Logger
	readTimeout time.Duration

	writeMu sync.Mutex
	closed  atomic.Bool

	state domain.DeviceSession
}

// DefaultReadTimeout is used when NewSession is called without an
// explicit timeout (e.g. from tests).
const DefaultReadTimeout = 5 * time.Second

// NewSession wraps conn with a fresh frame parser and the given handlers.
func NewSession(conn net.Conn, handlers Handlers, log logger.Logger) *Session {
	return NewSessionWithTimeout(conn, handlers, log, DefaultReadTimeout)
}

// NewSessionWithTimeout is NewSession with an explicit read deadline,
// per DeviceServerConfig.ReadTimeout.
func NewSessionWithTimeout(conn net.Conn, handlers Handlers, log logger.Logger, readTimeout time.Duration) *Session {
	return &Session{
		conn:        conn,
		parser:      protocol.NewFrameParser(),
		handlers:    handlers,
		logger:      log,
		readTimeout: readTimeout,
		state: domain.DeviceSession{
			Remote:      conn.RemoteAddr().String(),
			ConnectedAt: time.Now(),
			ParserState: domain.StateIdle,
		},
	}
}

// Run reads frames until ctx is cancelled, the connection errors, or the
// peer closes. It blocks the caller; run it in its own goroutine.
func (s *Session) Run(ctx context.Context) {
	defer s.Close()

	reader := bufio.NewReaderSize(s.conn, 4096)
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	buf := make([]byte, 4096)
	for {
		if s.closed.Load() {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		n, err := reader.Read(buf)
		if err != nil {
			if !s.closed.Load() {
				s.logger.Debug("device session read ended", "remote", s.state.Remote, "error", err)
			}
			return
		}
		s.state.LastRX = time.Now()

		for i := 0; i < n; i++ {
			msg, crcErr := s.parser.Feed(buf[i])
			if crcErr {
				s.state.CRCErrors++
			}
			if msg != nil {
				s.dispatch(*msg)
			}
		}
	}
}

// dispatch routes a decoded message to the matching handler and writes
// any matched response frame back to the device.
func (s *Session) dispatch(msg protocol.Message) {
	var resp *protocol.Message

	switch msg.Type {
	case protocol.PING:
		resp = &protocol.Message{Type: protocol.PONG, Seq: msg.Seq}

	case protocol.REQUEST_METRICS:
		var tuples []protocol.MetricTuple
		if s.handlers.OnMetricsRequest != nil {
			tuples = s.handlers.OnMetricsRequest(msg.Payload)
		}
		payload := protocol.EncodeMetrics(tuples)
		resp = &protocol.Message{Type: protocol.METRICS_RESPONSE, Seq: msg.Seq, Payload: payload}

	case protocol.GET_STATUS:
		status := protocol.StatusPayload{}
		if s.handlers.OnStatusRequest != nil {
			status = s.handlers.OnStatusRequest()
		}
		payload := protocol.EncodeStatus(status)
		resp = &protocol.Message{Type: protocol.STATUS_RESPONSE, Seq: msg.Seq, Payload: payload}

	case protocol.EXECUTE_COMMAND:
		var result protocol.CommandResult
		if len(msg.Payload) < 1 {
			result = protocol.CommandResult{Success: false, Code: 1, Detail: "no command type specified"}
		} else if s.handlers.OnCommand != nil {
			result = s.handlers.OnCommand(msg.Payload[0], msg.Payload[1:])
		} else {
			result = protocol.CommandResult{Success: false, Code: 1, Detail: "command execution not supported"}
		}
		payload := protocol.EncodeCommandResult(result)
		resp = &protocol.Message{Type: protocol.COMMAND_RESULT, Seq: msg.Seq, Payload: payload}

	default:
		if s.handlers.OnEvent != nil {
			s.handlers.OnEvent(msg)
		}
		return
	}

	if resp != nil {
		s.writeMessage(*resp)
	}
}

// SendEvent pushes an unsolicited frame (METRICS_EVENT, THRESHOLD_EXCEEDED,
// DEVICE_STATE_CHANGE, ERROR) to the device.
func (s *Session) SendEvent(msgType protocol.MessageType, payload []byte) error {
	return s.writeMessage(protocol.Message{Type: msgType, Seq: 0, Payload: payload})
}

func (s *Session) writeMessage(msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		s.logger.Warn("encode frame failed", "type", msg.Type, "error", err)
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed.Load() {
		return net.ErrClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := s.conn.Write(frame); err != nil {
		return err
	}
	s.state.LastTX = time.Now()
	return nil
}

// Close shuts down the underlying connection. Safe to call more than
// once.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.conn.Close()
	}
}

// State returns a snapshot of the session's bookkeeping.
func (s *Session) State() domain.DeviceSession {
	return s.state
}
