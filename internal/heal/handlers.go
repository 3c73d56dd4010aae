package heal

import (
	"fmt"
	"time"

	"github.com/bscore/diagnostic-core/internal/domain"
)

// handlerResult is the outcome of a kind-specific handler: success/failure
// and human-readable output, matching self_healing.py's (bool, str) tuple
// return from its _execute_* methods.
type handlerResult struct {
	success bool
	output  string
}

// actionHandlers dispatches a HealingAction to its kind-specific executor.
// In this deployment the executors talk to no real device (that lives
// behind the device protocol engine's command path, internal/deviceio);
// they simulate the outcome the way self_healing.py's placeholder handlers
// do, leaving the real wiring to a device_client-equivalent collaborator.
var actionHandlers = map[domain.ActionKind]func(domain.HealingAction) handlerResult{
	domain.ActionParameterChange: executeParameterChange,
	domain.ActionServiceRestart:  executeServiceRestart,
	domain.ActionLoadBalance:     executeLoadBalance,
	domain.ActionPowerCycle:      executePowerCycle,
	domain.ActionFailover:        executeFailover,
	domain.ActionTrafficRedirect: executeTrafficRedirect,
	domain.ActionAlarmSuppress:   executeAlarmSuppress,
}

func executeParameterChange(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("parameter changed: %s = %s", a.Parameters["action_type"], a.Parameters["action_value"])}
}

func executeServiceRestart(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("service restarted on %s", a.StationID)}
}

func executeLoadBalance(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("traffic redistributed from %s", a.StationID)}
}

func executePowerCycle(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("power cycle completed on %s", a.StationID)}
}

func executeFailover(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("failover completed for %s", a.StationID)}
}

func executeTrafficRedirect(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("traffic redirected from %s", a.StationID)}
}

func executeAlarmSuppress(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("alarms suppressed for maintenance on %s", a.StationID)}
}

func executeGeneric(a domain.HealingAction) handlerResult {
	return handlerResult{true, fmt.Sprintf("executed %s on %s", a.Kind, a.StationID)}
}

// simulatedExecutionDelay models the brief window self_healing.py's restart
// handler sleeps for; kept tiny so tests stay fast.
const simulatedExecutionDelay = 0

func dispatchHandler(a domain.HealingAction) handlerResult {
	if h, ok := actionHandlers[a.Kind]; ok {
		if simulatedExecutionDelay > 0 {
			time.Sleep(simulatedExecutionDelay)
		}
		return h(a)
	}
	return executeGeneric(a)
}
