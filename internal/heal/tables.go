package heal

import "github.com/bscore/diagnostic-core/internal/domain"

type actionRisk struct {
	kind domain.ActionKind
	risk domain.RiskLevel
}

// componentActions maps a predicted-failing component to the remediation
// it warrants, per self_healing.py's component_action_map.
var componentActions = map[domain.Component]actionRisk{
	domain.ComponentCoolingFan:     {domain.ActionServiceRestart, domain.RiskLow},
	domain.ComponentThermalSystem:  {domain.ActionParameterChange, domain.RiskMedium},
	domain.ComponentPowerSupply:    {domain.ActionFailover, domain.RiskHigh},
	domain.ComponentBatterySystem:  {domain.ActionAlarmSuppress, domain.RiskLow},
	domain.ComponentFiberTransport: {domain.ActionTrafficRedirect, domain.RiskHigh},
}

// rootCauseActions maps an RCA root-cause event type to the remediation it
// warrants, per self_healing.py's cause_action_map.
var rootCauseActions = map[string]actionRisk{
	"POWER_FAILURE":      {domain.ActionPowerCycle, domain.RiskHigh},
	"COOLING_FAILURE":    {domain.ActionServiceRestart, domain.RiskMedium},
	"NETWORK_CONGESTION": {domain.ActionLoadBalance, domain.RiskMedium},
	"HARDWARE_FAULT":     {domain.ActionFailover, domain.RiskCritical},
	"SOFTWARE_BUG":       {domain.ActionServiceRestart, domain.RiskMedium},
	"CONFIG_ERROR":       {domain.ActionParameterChange, domain.RiskLow},
	"INTERFERENCE":       {domain.ActionParameterChange, domain.RiskMedium},
}

// sonFunctionActions maps a SON function type code to the remediation it
// warrants, per self_healing.py's action_map. SON's own optimization
// algorithms are out of scope; this table only classifies recommendations
// a SON-like external producer hands the orchestrator.
var sonFunctionActions = map[string]actionRisk{
	"MLB":  {domain.ActionLoadBalance, domain.RiskMedium},
	"MRO":  {domain.ActionParameterChange, domain.RiskMedium},
	"CCO":  {domain.ActionParameterChange, domain.RiskHigh},
	"ES":   {domain.ActionParameterChange, domain.RiskLow},
	"ANR":  {domain.ActionParameterChange, domain.RiskLow},
	"RAO":  {domain.ActionParameterChange, domain.RiskMedium},
	"ICIC": {domain.ActionParameterChange, domain.RiskHigh},
}

var defaultSONAction = actionRisk{domain.ActionParameterChange, domain.RiskMedium}

// autoExecutePolicy is the risk-based gate from spec.md §4.11: LOW and
// MEDIUM may auto-execute, HIGH and CRITICAL always require approval.
var autoExecutePolicy = map[domain.RiskLevel]bool{
	domain.RiskLow:      true,
	domain.RiskMedium:   true,
	domain.RiskHigh:     false,
	domain.RiskCritical: false,
}

func policyAllows(risk domain.RiskLevel) bool {
	return autoExecutePolicy[risk]
}
