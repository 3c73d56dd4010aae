package deviceio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/internal/protocol"
	"github.com/bscore/diagnostic-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeSession(t *testing.T, handlers Handlers) (deviceConn net.Conn, sess *Session) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	sess = NewSessionWithTimeout(serverConn, handlers, logger.New("error"), 2*time.Second)
	go sess.Run(context.Background())
	t.Cleanup(sess.Close)
	return clientConn, sess
}

func readMessage(t *testing.T, conn net.Conn) protocol.Message {
	t.Helper()
	parser := protocol.NewFrameParser()
	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			continue
		}
		if msg, _ := parser.Feed(buf[0]); msg != nil {
			return *msg
		}
	}
}

func TestSessionRespondsToPing(t *testing.T) {
	conn, _ := pipeSession(t, Handlers{})
	defer conn.Close()

	frame, err := protocol.Encode(protocol.Message{Type: protocol.PING, Seq: 7})
	require.NoError(t, err)
	go conn.Write(frame)

	resp := readMessage(t, conn)
	assert.Equal(t, protocol.PONG, resp.Type)
	assert.Equal(t, uint8(7), resp.Seq)
}

func TestSessionDispatchesMetricsRequest(t *testing.T) {
	called := false
	handlers := Handlers{
		OnMetricsRequest: func(requested []uint8) []protocol.MetricTuple {
			called = true
			return []protocol.MetricTuple{{MetricType: 1, Value: 42.5}}
		},
	}
	conn, _ := pipeSession(t, handlers)
	defer conn.Close()

	frame, err := protocol.Encode(protocol.Message{Type: protocol.REQUEST_METRICS, Seq: 3})
	require.NoError(t, err)
	go conn.Write(frame)

	resp := readMessage(t, conn)
	assert.Equal(t, protocol.METRICS_RESPONSE, resp.Type)
	assert.True(t, called)

	tuples, err := protocol.DecodeMetrics(resp.Payload)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, float32(42.5), tuples[0].Value)
}

func TestSessionCommandWithoutPayloadFails(t *testing.T) {
	conn, _ := pipeSession(t, Handlers{})
	defer conn.Close()

	frame, err := protocol.Encode(protocol.Message{Type: protocol.EXECUTE_COMMAND, Seq: 1})
	require.NoError(t, err)
	go conn.Write(frame)

	resp := readMessage(t, conn)
	assert.Equal(t, protocol.COMMAND_RESULT, resp.Type)
	result, err := protocol.DecodeCommandResult(resp.Payload)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
