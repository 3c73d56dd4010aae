package domain

import "fmt"

// The seven-member error taxonomy of spec.md §7. Each wraps an optional
// underlying cause with fmt.Errorf("...: %w", err) per the wrapping
// convention used throughout the internal packages.

// ProtocolError covers bad frame headers, oversize lengths, and CRC
// mismatches. Discarded and counted at the protocol layer; never
// propagated upward.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ValidationError covers range/unit/enum rejections at ingest.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// DataInsufficientError is not a failure: an analyzer declines to produce
// a result because it has fewer samples than its minimum.
type DataInsufficientError struct {
	Have int
	Need int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient data: have %d, need %d", e.Have, e.Need)
}

// TimeoutError is terminal for the operation it interrupts; it triggers a
// rollback if one was declared.
type TimeoutError struct {
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("timeout: %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("timeout: %s", e.Operation)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// PolicyDeniedError is not a failure: the action's risk exceeds what
// auto-execution policy allows, so it remains PENDING.
type PolicyDeniedError struct {
	Risk RiskLevel
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("policy denied: risk %s requires approval", e.Risk)
}

// ExecutionFailureError is terminal FAILED for an action; rollback is
// attempted if declared.
type ExecutionFailureError struct {
	ActionID string
	Err      error
}

func (e *ExecutionFailureError) Error() string {
	return fmt.Sprintf("execution failure for action %s: %v", e.ActionID, e.Err)
}

func (e *ExecutionFailureError) Unwrap() error { return e.Err }

// InternalError marks an invariant violation. Logged and terminal for the
// operation; surfaces as a generic failure to callers.
type InternalError struct {
	Reason string
	Err    error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("internal error: %s", e.Reason)
}

func (e *InternalError) Unwrap() error { return e.Err }
