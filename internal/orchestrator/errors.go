package orchestrator

import "fmt"

// ValidationError marks malformed caller input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// SecurityBlockedError marks a run stopped by the security gate.
type SecurityBlockedError struct {
	Reason string
}

func (e *SecurityBlockedError) Error() string {
	return "request blocked: " + e.Reason
}

// UpstreamError wraps a dependency failure (database, model load) so the API
// layer can map it to a gateway error.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
