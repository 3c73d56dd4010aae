package domain

import "time"

// ParserState is the frame codec's byte-fed state machine state.
type ParserState int

const (
	StateIdle ParserState = iota
	StateHeader1
	StateLength
	StateType
	StateSequence
	StatePayload
	StateCRC
)

// DeviceSession summarizes one TCP connection's protocol-level state, for
// observability and diagnostics.
type DeviceSession struct {
	Remote          string
	ConnectedAt     time.Time
	LastRX          time.Time
	LastTX          time.Time
	SequenceCounter uint8
	ParserState     ParserState
	CRCErrors       uint64
	StreamingFlags  map[string]bool
}
