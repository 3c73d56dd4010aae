package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, p *FrameParser, data []byte) []*Message {
	t.Helper()
	var out []*Message
	for _, b := range data {
		if msg, ok := p.Feed(b); ok {
			out = append(out, msg)
		}
	}
	return out
}

func TestFrameRoundTrip(t *testing.T) {
	msg := Message{Type: PING, Seq: 7, Payload: []byte{1, 2, 3, 4}}
	encoded, err := Encode(msg)
	require.NoError(t, err)

	p := NewFrameParser()
	decoded := feedAll(t, p, encoded)
	require.Len(t, decoded, 1)
	assert.Equal(t, msg.Type, decoded[0].Type)
	assert.Equal(t, msg.Seq, decoded[0].Seq)
	assert.Equal(t, msg.Payload, decoded[0].Payload)
}

func TestFrameRejectsOversizePayload(t *testing.T) {
	_, err := Encode(Message{Type: PING, Seq: 0, Payload: make([]byte, MaxPayloadLen+1)})
	assert.Error(t, err)
}

// Scenario F: flip a bit before the CRC field, then feed a valid frame.
// Exactly one valid PING is emitted and crc_errors == 1.
func TestCRCResyncAfterCorruption(t *testing.T) {
	valid, err := Encode(Message{Type: PING, Seq: 1, Payload: []byte{0x01}})
	require.NoError(t, err)

	corrupted := append([]byte{}, valid...)
	corrupted[len(corrupted)-3] ^= 0xFF // flip a payload-adjacent bit, covered by CRC

	p := NewFrameParser()
	decoded := feedAll(t, p, corrupted)
	assert.Empty(t, decoded)
	assert.Equal(t, uint64(1), p.CRCErrors())

	decoded = feedAll(t, p, valid)
	require.Len(t, decoded, 1)
	assert.Equal(t, PING, decoded[0].Type)
	assert.Equal(t, uint64(1), p.CRCErrors())
}

// Invariant 2: after any number of injected garbage bytes, the parser
// decodes the next valid frame.
func TestCRCResyncAfterGarbage(t *testing.T) {
	valid, err := Encode(Message{Type: GET_STATUS, Seq: 3, Payload: []byte{9, 9}})
	require.NoError(t, err)

	garbage := []byte{0x00, 0xFF, 0xAA, 0x00, 0x55, 0x12, 0xAA}
	p := NewFrameParser()
	decoded := feedAll(t, p, garbage)
	assert.Empty(t, decoded)

	decoded = feedAll(t, p, valid)
	require.Len(t, decoded, 1)
	assert.Equal(t, GET_STATUS, decoded[0].Type)
}

func TestOversizeLengthDiscardsAndResyncs(t *testing.T) {
	// Header claiming a length far beyond MaxPayloadLen.
	bad := []byte{syncByte1, syncByte2, 0xFF, 0xFF}
	valid, err := Encode(Message{Type: PING, Seq: 0, Payload: nil})
	require.NoError(t, err)

	p := NewFrameParser()
	decoded := feedAll(t, p, bad)
	assert.Empty(t, decoded)

	decoded = feedAll(t, p, valid)
	require.Len(t, decoded, 1)
}

func TestMetricsPayloadRoundTrip(t *testing.T) {
	tuples := []MetricTuple{{MetricType: 1, Value: 42.5}, {MetricType: 2, Value: -10}}
	payload := EncodeMetrics(tuples)
	decoded, err := DecodeMetrics(payload)
	require.NoError(t, err)
	assert.Equal(t, tuples, decoded)
}

func TestStatusPayloadRoundTrip(t *testing.T) {
	status := StatusPayload{Status: 1, UptimeS: 3600, Errors: 2, Warnings: 5}
	payload := EncodeStatus(status)
	decoded, err := DecodeStatus(payload)
	require.NoError(t, err)
	assert.Equal(t, status, decoded)
}

func TestCRC16KnownVector(t *testing.T) {
	// "123456789" with poly 0x1021, init 0xFFFF yields 0x29B1 (CRC-CCITT-FALSE).
	assert.Equal(t, uint16(0x29B1), CRC16CCITT([]byte("123456789")))
}
