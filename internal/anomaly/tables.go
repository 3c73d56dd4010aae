package anomaly

import "github.com/bscore/diagnostic-core/internal/domain"

// categoryByMetric is the static metric -> AnomalyCategory map (spec.md
// §4.5).
var categoryByMetric = map[domain.MetricKind]domain.AnomalyCategory{
	domain.CPUUsage:            domain.CategoryPerformance,
	domain.MemoryUsage:         domain.CategoryPerformance,
	domain.Temperature:         domain.CategoryThermal,
	domain.FanSpeed:            domain.CategoryThermal,
	domain.PowerConsumption:    domain.CategoryPower,
	domain.SignalStrength:      domain.CategoryRF,
	domain.VSWR:                domain.CategoryRF,
	domain.SINRNR700:           domain.CategoryRF,
	domain.SINRNR3500:          domain.CategoryRF,
	domain.RSRPNR700:           domain.CategoryRF,
	domain.RSRPNR3500:          domain.CategoryRF,
	domain.DLNR700:             domain.CategoryRF,
	domain.ULNR700:             domain.CategoryRF,
	domain.DLNR3500:            domain.CategoryRF,
	domain.ULNR3500:            domain.CategoryRF,
	domain.BatterySOC:          domain.CategoryBattery,
	domain.BatteryDOD:          domain.CategoryBattery,
	domain.BatteryTemp:         domain.CategoryBattery,
	domain.BatteryCycles:       domain.CategoryBattery,
	domain.FiberRXPower:        domain.CategoryFiber,
	domain.FiberTXPower:        domain.CategoryFiber,
	domain.FiberBER:            domain.CategoryFiber,
	domain.FiberOSNR:           domain.CategoryFiber,
	domain.LatencyPing:         domain.CategoryQuality,
	domain.TXImbalance:         domain.CategoryQuality,
	domain.HandoverSuccessRate: domain.CategoryQuality,
}

// correlatedMetrics lists, for each metric, the other metrics scanned for
// concurrent anomalous behavior to produce hints (spec.md §4.5).
var correlatedMetrics = map[domain.MetricKind][]domain.MetricKind{
	domain.CPUUsage:         {domain.Temperature, domain.FanSpeed, domain.MemoryUsage},
	domain.Temperature:      {domain.CPUUsage, domain.FanSpeed, domain.PowerConsumption},
	domain.FanSpeed:         {domain.Temperature, domain.CPUUsage},
	domain.PowerConsumption: {domain.Temperature, domain.BatterySOC},
	domain.SignalStrength:   {domain.VSWR, domain.SINRNR700, domain.SINRNR3500},
	domain.VSWR:             {domain.SignalStrength},
	domain.LatencyPing:      {domain.DLNR700, domain.ULNR700, domain.HandoverSuccessRate},
	domain.BatterySOC:       {domain.BatteryTemp, domain.BatteryDOD},
	domain.FiberRXPower:     {domain.FiberBER, domain.FiberOSNR},
}

// recKey is the key of one (category, sign) -> actions entry. sign is +1 for
// value above mean, -1 for below. The metric is not part of the key.
type recKey struct {
	category domain.AnomalyCategory
	sign     int
}

var recommendationTable = map[recKey][]string{
	{domain.CategoryThermal, 1}:     {"Check HVAC system and ventilation", "Consider load shedding to reduce heat generation"},
	{domain.CategoryThermal, -1}:    {"Inspect temperature sensor calibration"},
	{domain.CategoryPerformance, 1}: {"Investigate process load and restart non-critical services"},
	{domain.CategoryPower, 1}:       {"Inspect power supply unit for overcurrent draw"},
	{domain.CategoryPower, -1}:      {"Check upstream power feed and battery backup"},
	{domain.CategoryRF, 1}:          {"Inspect antenna alignment and feeder connections"},
	{domain.CategoryRF, -1}:         {"Check for obstruction or interference near the antenna"},
	{domain.CategoryBattery, -1}:    {"Schedule battery health inspection"},
	{domain.CategoryFiber, -1}:      {"Inspect fiber connectors and optical transceiver"},
	{domain.CategoryQuality, 1}:     {"Review scheduler and handover parameters"},
}

func severityActions(severity domain.Severity) []string {
	if severity == domain.SeverityCritical || severity == domain.SeverityHigh {
		return []string{"Dispatch field technician for inspection"}
	}
	return nil
}
