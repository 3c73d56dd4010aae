package core

import (
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/bscore/diagnostic-core/internal/deviceio"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/protocol"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

// wireMetricOrder maps a device protocol metric index (protocol.MetricTuple.
// MetricType) to the domain.MetricKind it carries. The wire format has no
// room for a self-describing name, so the index is positional: it must
// match the order the device firmware was built against, which mirrors the
// declaration order of MetricKind.
var wireMetricOrder = []domain.MetricKind{
	domain.CPUUsage,
	domain.MemoryUsage,
	domain.Temperature,
	domain.PowerConsumption,
	domain.FanSpeed,
	domain.SignalStrength,
	domain.VSWR,
	domain.SINRNR700,
	domain.SINRNR3500,
	domain.RSRPNR700,
	domain.RSRPNR3500,
	domain.DLNR700,
	domain.ULNR700,
	domain.DLNR3500,
	domain.ULNR3500,
	domain.BatterySOC,
	domain.BatteryDOD,
	domain.BatteryTemp,
	domain.BatteryCycles,
	domain.FiberRXPower,
	domain.FiberTXPower,
	domain.FiberBER,
	domain.FiberOSNR,
	domain.LatencyPing,
	domain.TXImbalance,
	domain.HandoverSuccessRate,
}

// metricByWireIndex resolves a wire index to a MetricKind, reporting
// whether the index is within the known table.
func metricByWireIndex(index uint8) (domain.MetricKind, bool) {
	if int(index) >= len(wireMetricOrder) {
		return "", false
	}
	return wireMetricOrder[index], true
}

// wireIndexByMetric is the inverse of wireMetricOrder, built once for
// REQUEST_METRICS replies.
var wireIndexByMetric = func() map[domain.MetricKind]uint8 {
	m := make(map[domain.MetricKind]uint8, len(wireMetricOrder))
	for i, k := range wireMetricOrder {
		m[k] = uint8(i)
	}
	return m
}()

// NewSessionFactory returns a deviceio.SessionFactory wiring every accepted
// device connection to svc. Stations are correlated by the connection's
// remote address: the wire protocol carries no station identifier of its
// own (spec.md §4.2), so one TCP connection is treated as one station for
// the lifetime of that connection.
func NewSessionFactory(svc *Service, log logger.Logger) deviceio.SessionFactory {
	return func(remote net.Addr) deviceio.Handlers {
		return NewDeviceHandlers(svc, remote.String(), log)
	}
}

// NewDeviceHandlers builds the deviceio.Handlers for a single station's
// session, closing over stationID so every callback can reach the right
// rolling-store/alarm state on svc.
func NewDeviceHandlers(svc *Service, stationID string, log logger.Logger) deviceio.Handlers {
	return deviceio.Handlers{
		OnMetricsRequest: func(requested []uint8) []protocol.MetricTuple {
			return onMetricsRequest(svc, stationID, requested)
		},
		OnStatusRequest: func() protocol.StatusPayload {
			return protocol.StatusPayload{Status: 0}
		},
		OnCommand: func(cmdType uint8, params []byte) protocol.CommandResult {
			log.Warn("device command execution not supported", "station", stationID, "command_type", cmdType)
			return protocol.CommandResult{Success: false, Code: 1, Detail: "command execution not supported"}
		},
		OnEvent: func(msg protocol.Message) {
			onDeviceEvent(svc, stationID, log, msg)
		},
	}
}

// onMetricsRequest answers a REQUEST_METRICS frame. An empty requested list
// means "all known metrics"; otherwise only the requested wire indices with
// a recorded value are returned.
func onMetricsRequest(svc *Service, stationID string, requested []uint8) []protocol.MetricTuple {
	indices := requested
	if len(indices) == 0 {
		indices = make([]uint8, len(wireMetricOrder))
		for i := range wireMetricOrder {
			indices[i] = uint8(i)
		}
	}

	tuples := make([]protocol.MetricTuple, 0, len(indices))
	for _, idx := range indices {
		kind, ok := metricByWireIndex(idx)
		if !ok {
			continue
		}
		value, ok := svc.LatestValue(stationID, kind)
		if !ok {
			continue
		}
		tuples = append(tuples, protocol.MetricTuple{MetricType: idx, Value: float32(value)})
	}
	return tuples
}

// onDeviceEvent interprets an unsolicited frame and folds it into the
// analytic pipeline. METRICS_EVENT carries the same tuple encoding as a
// METRICS_RESPONSE; THRESHOLD_EXCEEDED carries a single tuple naming the
// metric that crossed its limit, which is recorded both as a reading and
// as an alarm. DEVICE_STATE_CHANGE and ERROR carry a single status byte
// and are logged, since the protocol defines no richer payload for them.
func onDeviceEvent(svc *Service, stationID string, log logger.Logger, msg protocol.Message) {
	switch msg.Type {
	case protocol.METRICS_EVENT:
		tuples, err := protocol.DecodeMetrics(msg.Payload)
		if err != nil {
			log.Warn("malformed metrics event", "station", stationID, "error", err)
			return
		}
		ingestTuples(svc, stationID, tuples)

	case protocol.THRESHOLD_EXCEEDED:
		tuples, err := protocol.DecodeMetrics(msg.Payload)
		if err != nil || len(tuples) == 0 {
			log.Warn("malformed threshold event", "station", stationID, "error", err)
			return
		}
		ingestTuples(svc, stationID, tuples)
		tuple := tuples[0]
		kind, ok := metricByWireIndex(tuple.MetricType)
		if !ok {
			return
		}
		value := float64(tuple.Value)
		svc.IngestAlarm(domain.Alarm{
			AlarmID:   deviceAlarmID(stationID),
			StationID: stationID,
			AlarmType: "THRESHOLD_EXCEEDED",
			Severity:  domain.AlarmWarning,
			Timestamp: time.Now(),
			Message:   "device-reported threshold exceeded for " + string(kind),
			Metric:    &kind,
			Value:     &value,
		})

	case protocol.DEVICE_STATE_CHANGE:
		var status uint8
		if len(msg.Payload) > 0 {
			status = msg.Payload[0]
		}
		log.Info("device state change", "station", stationID, "status", status)

	case protocol.ERROR:
		log.Warn("device reported error", "station", stationID, "payload_len", len(msg.Payload))

	default:
		log.Debug("unhandled device event", "station", stationID, "type", msg.Type)
	}
}

func ingestTuples(svc *Service, stationID string, tuples []protocol.MetricTuple) {
	for _, tuple := range tuples {
		kind, ok := metricByWireIndex(tuple.MetricType)
		if !ok {
			continue
		}
		spec := domain.MetricDictionary[kind]
		_, _, err := svc.IngestMetric(domain.MetricReading{
			StationID: stationID,
			Metric:    kind,
			Value:     float64(tuple.Value),
			Unit:      spec.Unit,
			Timestamp: time.Now(),
		})
		if err != nil {
			continue
		}
	}
}

// deviceAlarmID synthesizes an alarm ID for a device-reported threshold
// event. The wire protocol has no alarm-ID field of its own, unlike the
// operator-supplied alarms the HTTP façade accepts.
func deviceAlarmID(stationID string) string {
	return "dev-" + stationID + "-" + uuid.NewString()
}
