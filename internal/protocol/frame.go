package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/monitoring"
)

// Encode serializes a Message into its wire frame:
// 0xAA 0x55 | length(u16 BE) | type(u8) | seq(u8) | payload | crc(u16 BE).
func Encode(msg Message) ([]byte, error) {
	if len(msg.Payload) > MaxPayloadLen {
		return nil, fmt.Errorf("protocol: payload length %d exceeds max %d", len(msg.Payload), MaxPayloadLen)
	}

	buf := make([]byte, 0, 6+len(msg.Payload)+2)
	buf = append(buf, syncByte1, syncByte2)
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(msg.Payload)))
	buf = append(buf, lenBuf...)
	buf = append(buf, byte(msg.Type), msg.Seq)
	buf = append(buf, msg.Payload...)

	crc := CRC16CCITT(buf)
	crcBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(crcBuf, crc)
	buf = append(buf, crcBuf...)

	return buf, nil
}

// EncodeMetrics builds a METRICS_RESPONSE/METRICS_EVENT payload: a sequence
// of (metric_type:u8, value:f32 BE) tuples with no count prefix.
func EncodeMetrics(tuples []MetricTuple) []byte {
	payload := make([]byte, 0, len(tuples)*5)
	for _, t := range tuples {
		payload = append(payload, t.MetricType)
		bits := make([]byte, 4)
		binary.BigEndian.PutUint32(bits, math.Float32bits(t.Value))
		payload = append(payload, bits...)
	}
	return payload
}

// DecodeMetrics parses a METRICS_RESPONSE/METRICS_EVENT payload.
func DecodeMetrics(payload []byte) ([]MetricTuple, error) {
	if len(payload)%5 != 0 {
		return nil, &domain.ProtocolError{Reason: "metrics payload length not a multiple of 5"}
	}
	tuples := make([]MetricTuple, 0, len(payload)/5)
	for i := 0; i < len(payload); i += 5 {
		v := binary.BigEndian.Uint32(payload[i+1 : i+5])
		tuples = append(tuples, MetricTuple{
			MetricType: payload[i],
			Value:      math.Float32frombits(v),
		})
	}
	return tuples, nil
}

// EncodeStatus builds a GET_STATUS/STATUS_RESPONSE payload.
func EncodeStatus(s StatusPayload) []byte {
	payload := make([]byte, 9)
	payload[0] = s.Status
	binary.BigEndian.PutUint32(payload[1:5], s.UptimeS)
	binary.BigEndian.PutUint16(payload[5:7], s.Errors)
	binary.BigEndian.PutUint16(payload[7:9], s.Warnings)
	return payload
}

// DecodeStatus parses a GET_STATUS/STATUS_RESPONSE payload.
func DecodeStatus(payload []byte) (StatusPayload, error) {
	if len(payload) != 9 {
		return StatusPayload{}, &domain.ProtocolError{Reason: fmt.Sprintf("status payload length %d, want 9", len(payload))}
	}
	return StatusPayload{
		Status:   payload[0],
		UptimeS:  binary.BigEndian.Uint32(payload[1:5]),
		Errors:   binary.BigEndian.Uint16(payload[5:7]),
		Warnings: binary.BigEndian.Uint16(payload[7:9]),
	}, nil
}

// EncodeCommandResult builds an EXECUTE_COMMAND/COMMAND_RESULT payload:
// success(u8) | code(u8) | detail (remaining bytes, UTF-8).
func EncodeCommandResult(r CommandResult) []byte {
	payload := make([]byte, 2+len(r.Detail))
	if r.Success {
		payload[0] = 1
	}
	payload[1] = r.Code
	copy(payload[2:], r.Detail)
	return payload
}

// DecodeCommandResult parses an EXECUTE_COMMAND/COMMAND_RESULT payload.
func DecodeCommandResult(payload []byte) (CommandResult, error) {
	if len(payload) < 2 {
		return CommandResult{}, &domain.ProtocolError{Reason: "command result payload shorter than 2 bytes"}
	}
	return CommandResult{
		Success: payload[0] != 0,
		Code:    payload[1],
		Detail:  string(payload[2:]),
	}, nil
}

// parserState drives the byte-fed frame decoder.
type parserState int

const (
	psIdle parserState = iota
	psHeader1
	psLength
	psType
	psSequence
	psPayload
	psCRC
)

// FrameParser decodes a byte stream into Messages, discarding malformed or
// CRC-invalid frames and resynchronizing on the next 0xAA.
type FrameParser struct {
	state      parserState
	length     uint16
	lengthBuf  []byte
	msgType    uint8
	seq        uint8
	payload    []byte
	crcBuf     []byte
	crcErrors  uint64
	framingBuf []byte // everything preceding the CRC field, for CRC verification
}

// NewFrameParser returns a parser positioned at IDLE.
func NewFrameParser() *FrameParser {
	return &FrameParser{state: psIdle}
}

// CRCErrors returns the count of frames discarded due to CRC mismatch.
func (p *FrameParser) CRCErrors() uint64 { return p.crcErrors }

// Feed consumes one byte and returns a decoded Message when a complete,
// valid frame has been assembled. Malformed or CRC-invalid frames never
// surface; the parser silently resyncs on the next 0xAA.
func (p *FrameParser) Feed(b byte) (*Message, bool) {
	switch p.state {
	case psIdle:
		if b == syncByte1 {
			p.reset()
			p.state = psHeader1
		}
	case psHeader1:
		if b == syncByte2 {
			p.state = psLength
			p.lengthBuf = nil
		} else if b == syncByte1 {
			// stay in header1, allow resync on repeated sync bytes
		} else {
			p.state = psIdle
		}
	case psLength:
		p.lengthBuf = append(p.lengthBuf, b)
		if len(p.lengthBuf) == 2 {
			p.length = binary.BigEndian.Uint16(p.lengthBuf)
			if p.length > MaxPayloadLen {
				monitoring.RecordCRCError()
				p.state = psIdle
				return nil, false
			}
			p.state = psType
		}
	case psType:
		p.msgType = b
		p.state = psSequence
	case psSequence:
		p.seq = b
		p.payload = make([]byte, 0, p.length)
		if p.length == 0 {
			p.state = psCRC
			p.crcBuf = nil
		} else {
			p.state = psPayload
		}
	case psPayload:
		p.payload = append(p.payload, b)
		if len(p.payload) == int(p.length) {
			p.state = psCRC
			p.crcBuf = nil
		}
	case psCRC:
		p.crcBuf = append(p.crcBuf, b)
		if len(p.crcBuf) == 2 {
			expected := binary.BigEndian.Uint16(p.crcBuf)
			framing := p.buildFraming()
			actual := CRC16CCITT(framing)
			p.state = psIdle
			if actual != expected {
				p.crcErrors++
				monitoring.RecordCRCError()
				return nil, false
			}
			monitoring.RecordFrameDecoded()
			return &Message{Type: MessageType(p.msgType), Seq: p.seq, Payload: p.payload}, true
		}
	}
	return nil, false
}

func (p *FrameParser) reset() {
	p.lengthBuf = nil
	p.payload = nil
	p.crcBuf = nil
}

func (p *FrameParser) buildFraming() []byte {
	buf := make([]byte, 0, 6+len(p.payload))
	buf = append(buf, syncByte1, syncByte2)
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, p.length)
	buf = append(buf, lenBuf...)
	buf = append(buf, p.msgType, p.seq)
	buf = append(buf, p.payload...)
	return buf
}
