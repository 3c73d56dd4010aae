// Package simulator is a test-only in-memory device that speaks the wire
// protocol, for exercising internal/deviceio's Session without a real
// socket; no package or test in this module imports it. It plays the same role original_source/ai-diagnostic's
// virtual-basestation/mips_simulator.py does for the Python server: a
// scriptable peer for protocol-conformance tests.
package simulator

import (
	"math/rand"
	"net"
	"time"

	"github.com/bscore/diagnostic-core/internal/protocol"
)

// Device is a fake base station: it holds a reservoir of metric values
// and answers protocol requests over a net.Conn (ordinarily one half of
// a net.Pipe).
type Device struct {
	conn    net.Conn
	parser  *protocol.FrameParser
	metrics map[uint8]float32
	seq     uint8
}

// New wraps conn with a Device seeded with the given metric values.
func New(conn net.Conn, metrics map[uint8]float32) *Device {
	return &Device{conn: conn, parser: protocol.NewFrameParser(), metrics: metrics}
}

// SetMetric updates the value the device reports for the given metric
// type on the next REQUEST_METRICS.
func (d *Device) SetMetric(metricType uint8, value float32) {
	d.metrics[metricType] = value
}

// Ping sends a PING and blocks for the matching PONG.
func (d *Device) Ping(timeout time.Duration) error {
	seq := d.nextSeq()
	frame, err := protocol.Encode(protocol.Message{Type: protocol.PING, Seq: seq})
	if err != nil {
		return err
	}
	if _, err := d.conn.Write(frame); err != nil {
		return err
	}
	_, err = d.readUntil(timeout, func(m protocol.Message) bool {
		return m.Type == protocol.PONG && m.Seq == seq
	})
	return err
}

// RequestMetrics sends a REQUEST_METRICS with an empty index list (all
// metrics) and returns the decoded tuples.
func (d *Device) RequestMetrics(timeout time.Duration) ([]protocol.MetricTuple, error) {
	seq := d.nextSeq()
	frame, err := protocol.Encode(protocol.Message{Type: protocol.REQUEST_METRICS, Seq: seq})
	if err != nil {
		return nil, err
	}
	if _, err := d.conn.Write(frame); err != nil {
		return nil, err
	}
	msg, err := d.readUntil(timeout, func(m protocol.Message) bool {
		return m.Type == protocol.METRICS_RESPONSE && m.Seq == seq
	})
	if err != nil {
		return nil, err
	}
	return protocol.DecodeMetrics(msg.Payload)
}

// InjectGarbage writes n random bytes that never form a valid frame
// (used to exercise CRC resync, spec.md invariant 2).
func (d *Device) InjectGarbage(n int) error {
	buf := make([]byte, n)
	for i := range buf {
		b := byte(rand.Intn(256))
		if b == 0xAA {
			b = 0xAB
		}
		buf[i] = b
	}
	_, err := d.conn.Write(buf)
	return err
}

func (d *Device) nextSeq() uint8 {
	d.seq++
	return d.seq
}

func (d *Device) readUntil(timeout time.Duration, match func(protocol.Message) bool) (protocol.Message, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 1)
	for time.Now().Before(deadline) {
		d.conn.SetReadDeadline(deadline)
		n, err := d.conn.Read(buf)
		if err != nil {
			return protocol.Message{}, err
		}
		if n == 0 {
			continue
		}
		if msg, _ := d.parser.Feed(buf[0]); msg != nil && match(*msg) {
			return *msg, nil
		}
	}
	return protocol.Message{}, &timeoutErr{}
}

type timeoutErr struct{}

func (*timeoutErr) Error() string { return "simulator: timed out waiting for matching frame" }
