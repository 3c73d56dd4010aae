package domain

import "time"

// MetricKind enumerates every telemetry metric the core accepts from a
// station. Each kind has a declared unit and a valid range; readings
// outside the range are rejected at ingest.
type MetricKind string

const (
	CPUUsage          MetricKind = "CPU_USAGE"
	MemoryUsage       MetricKind = "MEMORY_USAGE"
	Temperature       MetricKind = "TEMPERATURE"
	PowerConsumption  MetricKind = "POWER_CONSUMPTION"
	FanSpeed          MetricKind = "FAN_SPEED"
	SignalStrength    MetricKind = "SIGNAL_STRENGTH"
	VSWR              MetricKind = "VSWR"
	SINRNR700         MetricKind = "SINR_NR700"
	SINRNR3500        MetricKind = "SINR_NR3500"
	RSRPNR700         MetricKind = "RSRP_NR700"
	RSRPNR3500        MetricKind = "RSRP_NR3500"
	DLNR700           MetricKind = "DL_NR700"
	ULNR700           MetricKind = "UL_NR700"
	DLNR3500          MetricKind = "DL_NR3500"
	ULNR3500          MetricKind = "UL_NR3500"
	BatterySOC        MetricKind = "BATTERY_SOC"
	BatteryDOD        MetricKind = "BATTERY_DOD"
	BatteryTemp       MetricKind = "BATTERY_TEMP"
	BatteryCycles     MetricKind = "BATTERY_CYCLES"
	FiberRXPower      MetricKind = "FIBER_RX_POWER"
	FiberTXPower      MetricKind = "FIBER_TX_POWER"
	FiberBER          MetricKind = "FIBER_BER"
	FiberOSNR         MetricKind = "FIBER_OSNR"
	LatencyPing       MetricKind = "LATENCY_PING"
	TXImbalance       MetricKind = "TX_IMBALANCE"
	HandoverSuccessRate MetricKind = "HANDOVER_SUCCESS_RATE"
)

// MetricSpec is the declared contract for a MetricKind: its unit and the
// inclusive range of values accepted at ingest.
type MetricSpec struct {
	Unit string
	Min  float64
	Max  float64
}

// MetricDictionary is the authoritative (kind -> spec) table. It is part of
// the external interface contract (spec.md §6) and must not be mutated
// after startup.
var MetricDictionary = map[MetricKind]MetricSpec{
	CPUUsage:            {Unit: "%", Min: 0, Max: 100},
	MemoryUsage:         {Unit: "%", Min: 0, Max: 100},
	Temperature:         {Unit: "C", Min: -40, Max: 100},
	PowerConsumption:    {Unit: "W", Min: 0, Max: 10000},
	FanSpeed:            {Unit: "RPM", Min: 0, Max: 10000},
	SignalStrength:      {Unit: "dBm", Min: -120, Max: 0},
	VSWR:                {Unit: "ratio", Min: 1, Max: 10},
	SINRNR700:           {Unit: "dB", Min: -20, Max: 40},
	SINRNR3500:          {Unit: "dB", Min: -20, Max: 40},
	RSRPNR700:           {Unit: "dBm", Min: -140, Max: -40},
	RSRPNR3500:          {Unit: "dBm", Min: -140, Max: -40},
	DLNR700:             {Unit: "Mbps", Min: 0, Max: 1000},
	ULNR700:             {Unit: "Mbps", Min: 0, Max: 1000},
	DLNR3500:            {Unit: "Mbps", Min: 0, Max: 5000},
	ULNR3500:            {Unit: "Mbps", Min: 0, Max: 5000},
	BatterySOC:          {Unit: "%", Min: 0, Max: 100},
	BatteryDOD:          {Unit: "%", Min: 0, Max: 100},
	BatteryTemp:         {Unit: "C", Min: -20, Max: 80},
	BatteryCycles:       {Unit: "count", Min: 0, Max: 10000},
	FiberRXPower:        {Unit: "dBm", Min: -40, Max: 10},
	FiberTXPower:        {Unit: "dBm", Min: -40, Max: 10},
	FiberBER:            {Unit: "ratio", Min: 0, Max: 1},
	FiberOSNR:           {Unit: "dB", Min: 0, Max: 40},
	LatencyPing:         {Unit: "ms", Min: 0, Max: 5000},
	TXImbalance:         {Unit: "dB", Min: 0, Max: 20},
	HandoverSuccessRate: {Unit: "%", Min: 0, Max: 100},
}

// Valid reports whether value falls within the declared range for kind.
// Unknown kinds are always invalid.
func (k MetricKind) Valid(value float64) bool {
	spec, ok := MetricDictionary[k]
	if !ok {
		return false
	}
	return value >= spec.Min && value <= spec.Max
}

// MetricReading is an immutable sample emitted by a station.
type MetricReading struct {
	StationID string
	Metric    MetricKind
	Value     float64
	Unit      string
	Timestamp time.Time
}
