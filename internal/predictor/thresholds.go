package predictor

// Component threshold tables, preserved verbatim from the source
// predictive-maintenance constants (spec.md §4.7).
const (
	FanHealthyRPMMin          = 2000.0
	FanWarningRPMMin          = 1500.0
	FanCriticalRPMMin         = 1000.0
	FanRPMVariationThreshold  = 0.15
	FanDegradationSlopeThresh = -10.0

	TempHealthyMax  = 55.0
	TempWarningMax  = 65.0
	TempCriticalMax = 75.0

	VoltageTolerance = 0.05

	BatterySOCHealthyMin   = 80.0
	BatterySOCWarningMin   = 50.0
	BatterySOCCriticalMin  = 20.0
	BatteryDODHealthyMax   = 50.0
	BatteryDODWarningMax   = 70.0
	BatteryDODCriticalMax  = 85.0
	BatteryTempHealthyMax  = 35.0
	BatteryTempWarningMax  = 45.0
	BatteryTempCriticalMax = 55.0
	BatteryCycleHealthyMax  = 500.0
	BatteryCycleWarningMax  = 800.0
	BatteryCycleCriticalMax = 1000.0

	FiberRXHealthyMin  = -20.0
	FiberRXWarningMin  = -25.0
	FiberRXCriticalMin = -30.0
	FiberTXHealthyMin  = -5.0
	FiberTXWarningMin  = -8.0
	FiberTXCriticalMin = -10.0
	FiberBERHealthyMax  = 1e-12
	FiberBERWarningMax  = 1e-9
	FiberBERCriticalMax = 1e-6
	FiberOSNRHealthyMin  = 25.0
	FiberOSNRWarningMin  = 18.0
	FiberOSNRCriticalMin = 12.0

	// MinDataPoints is the minimum sample count before a predictor
	// produces a result (spec.md §4.7).
	MinDataPoints = 10
)
