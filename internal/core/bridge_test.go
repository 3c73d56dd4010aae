package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/domain"
	"github.com/bscore/diagnostic-core/internal/protocol"
	"github.com/bscore/diagnostic-core/pkg/cache"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

func newBridgeTestService() *Service {
	log := logger.New("error")
	return New(*config.GetDefaultConfig(), cache.NewNoopValkeyCache(log), log)
}

func TestMetricByWireIndexRoundTrips(t *testing.T) {
	kind, ok := metricByWireIndex(0)
	require.True(t, ok)
	assert.Equal(t, domain.CPUUsage, kind)

	idx, ok := wireIndexByMetric[domain.CPUUsage]
	require.True(t, ok)
	assert.Equal(t, uint8(0), idx)

	_, ok = metricByWireIndex(255)
	assert.False(t, ok)
}

func TestOnMetricsRequestReturnsOnlyKnownReadings(t *testing.T) {
	svc := newBridgeTestService()
	_, _, err := svc.IngestMetric(domain.MetricReading{StationID: "S1", Metric: domain.CPUUsage, Value: 42, Unit: "%"})
	require.NoError(t, err)

	tuples := onMetricsRequest(svc, "S1", nil)
	require.NotEmpty(t, tuples)

	var found bool
	for _, tup := range tuples {
		if tup.MetricType == wireIndexByMetric[domain.CPUUsage] {
			found = true
			assert.InDelta(t, float32(42), tup.Value, 0.01)
		}
	}
	assert.True(t, found)
}

func TestOnMetricsRequestHonorsExplicitIndices(t *testing.T) {
	svc := newBridgeTestService()
	_, _, err := svc.IngestMetric(domain.MetricReading{StationID: "S1", Metric: domain.Temperature, Value: 55, Unit: "C"})
	require.NoError(t, err)

	tempIdx := wireIndexByMetric[domain.Temperature]
	cpuIdx := wireIndexByMetric[domain.CPUUsage]

	tuples := onMetricsRequest(svc, "S1", []uint8{tempIdx, cpuIdx})
	require.Len(t, tuples, 1)
	assert.Equal(t, tempIdx, tuples[0].MetricType)
}

func TestOnDeviceEventMetricsEventIngestsReading(t *testing.T) {
	svc := newBridgeTestService()
	log := logger.New("error")
	payload := protocol.EncodeMetrics([]protocol.MetricTuple{
		{MetricType: wireIndexByMetric[domain.MemoryUsage], Value: 61},
	})
	onDeviceEvent(svc, "S2", log, protocol.Message{Type: protocol.METRICS_EVENT, Payload: payload})

	value, ok := svc.LatestValue("S2", domain.MemoryUsage)
	require.True(t, ok)
	assert.InDelta(t, 61, value, 0.01)
}

func TestOnDeviceEventThresholdExceededRaisesAlarm(t *testing.T) {
	svc := newBridgeTestService()
	log := logger.New("error")
	payload := protocol.EncodeMetrics([]protocol.MetricTuple{
		{MetricType: wireIndexByMetric[domain.Temperature], Value: 95},
	})
	onDeviceEvent(svc, "S3", log, protocol.Message{Type: protocol.THRESHOLD_EXCEEDED, Seq: 7, Payload: payload})

	result := svc.Correlate([]domain.Alarm{})
	assert.Equal(t, 0, len(result.Clusters)+len(result.Uncorrelated)) // correlating an empty batch yields nothing

	all := svc.allBufferedAlarms()
	require.Len(t, all, 1)
	assert.Equal(t, "S3", all[0].StationID)
	assert.Equal(t, "THRESHOLD_EXCEEDED", all[0].AlarmType)
	require.NotNil(t, all[0].Metric)
	assert.Equal(t, domain.Temperature, *all[0].Metric)
}

func TestNewSessionFactoryBuildsHandlersPerConnection(t *testing.T) {
	svc := newBridgeTestService()
	log := logger.New("error")
	factory := NewSessionFactory(svc, log)
	handlers := factory(fakeAddr("127.0.0.1:5555"))
	require.NotNil(t, handlers.OnMetricsRequest)
	require.NotNil(t, handlers.OnStatusRequest)
	require.NotNil(t, handlers.OnCommand)
	require.NotNil(t, handlers.OnEvent)
}

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }
