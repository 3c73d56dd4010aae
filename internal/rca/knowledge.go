package rca

// causeKnowledge is a domain rule: the effects a cause type is known to
// produce, the action that addresses it, and a severity multiplier used
// when ranking root-cause candidates.
type causeKnowledge struct {
	effects       map[string]struct{}
	action        string
	severityBoost float64
}

// causalKnowledge is the fixed domain-rule table consulted before falling
// back to learned patterns or the temporal/station heuristic.
var causalKnowledge = map[string]*causeKnowledge{
	"POWER_FAILURE": {
		effects:       set("TEMPERATURE_HIGH", "FAN_FAILURE", "SIGNAL_LOSS", "CPU_OFFLINE", "RADIO_OFFLINE"),
		action:        "Check main power supply, UPS status, and generator",
		severityBoost: 1.5,
	},
	"FAN_FAILURE": {
		effects:       set("TEMPERATURE_HIGH", "CPU_THROTTLE", "AMPLIFIER_OVERHEAT"),
		action:        "Replace failed fan unit, check ventilation",
		severityBoost: 1.2,
	},
	"BATTERY_DEGRADATION": {
		effects:       set("POWER_INSTABILITY", "VOLTAGE_DROP", "BACKUP_FAILURE"),
		action:        "Replace degraded batteries, check charging system",
		severityBoost: 1.1,
	},
	"FIBER_CUT": {
		effects:       set("BACKHAUL_DOWN", "SIGNAL_LOSS", "HANDOVER_FAILURE", "LATENCY_HIGH"),
		action:        "Dispatch technician to locate and repair fiber",
		severityBoost: 1.5,
	},
	"BACKHAUL_DOWN": {
		effects:       set("HANDOVER_FAILURE", "THROUGHPUT_LOW", "PACKET_LOSS_HIGH"),
		action:        "Switch to backup link, investigate primary link failure",
		severityBoost: 1.3,
	},
	"ANTENNA_FAULT": {
		effects:       set("VSWR_HIGH", "TX_POWER_REDUCED", "RSRP_WEAK", "COVERAGE_LOSS"),
		action:        "Inspect antenna and connectors, check for water ingress",
		severityBoost: 1.3,
	},
	"INTERFERENCE": {
		effects:       set("SINR_LOW", "BLER_HIGH", "THROUGHPUT_LOW", "CALL_DROP"),
		action:        "Identify interference source, adjust frequency plan",
		severityBoost: 1.2,
	},
	"TX_IMBALANCE": {
		effects:       set("RSRP_WEAK", "MIMO_DEGRADATION", "THROUGHPUT_LOW"),
		action:        "Recalibrate TX path, check RF chain components",
		severityBoost: 1.2,
	},
	"TEMPERATURE_EXTREME": {
		effects:       set("TEMPERATURE_HIGH", "FAN_OVERLOAD", "EQUIPMENT_SHUTDOWN"),
		action:        "Activate emergency cooling, consider load reduction",
		severityBoost: 1.4,
	},
	"LIGHTNING_STRIKE": {
		effects:       set("POWER_SURGE", "EQUIPMENT_DAMAGE", "GROUNDING_FAULT"),
		action:        "Check surge protectors, inspect for equipment damage",
		severityBoost: 1.5,
	},
	"CONFIG_ERROR": {
		effects:       set("PARAMETER_MISMATCH", "HANDOVER_FAILURE", "CELL_BARRED"),
		action:        "Restore last known good configuration, verify parameters",
		severityBoost: 1.2,
	},
	"SOFTWARE_BUG": {
		effects:       set("MEMORY_LEAK", "CPU_HIGH", "PROCESS_CRASH", "RESTART_LOOP"),
		action:        "Apply software patch or rollback to stable version",
		severityBoost: 1.3,
	},
}

// temporalConstraints bounds the max lag, in seconds, within which a
// cause's effects are still attributable to it. Types not listed use
// defaultMaxLag (300s), per the documented default in spec.md §4.9.
var temporalConstraints = map[string]float64{
	"FAN_FAILURE":  300,
	"FIBER_CUT":    5,
	"INTERFERENCE": 60,
	"CONFIG_ERROR": 30,
	"SOFTWARE_BUG": 120,
}

const defaultMaxLag = 300

func maxLagFor(causeType string) float64 {
	if v, ok := temporalConstraints[causeType]; ok {
		return v
	}
	return defaultMaxLag
}

func actionFor(eventType string) string {
	if k, ok := causalKnowledge[eventType]; ok {
		return k.action
	}
	return "Investigate " + eventType + " and check related systems"
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, i := range items {
		m[i] = struct{}{}
	}
	return m
}
