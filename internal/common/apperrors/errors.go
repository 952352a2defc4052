// Package apperrors provides the typed error taxonomy used across the
// orchestrator: every public operation returns either nil or an *AppError
// wrapping one of the sentinel signals below.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
)

// Kind classifies an error for callers that want to branch on category
// rather than on the exact signal.
type Kind string

const (
	KindResourceCap   Kind = "resource-cap"
	KindNotFound      Kind = "not-found"
	KindPrecondition  Kind = "precondition"
	KindTiming        Kind = "timing"
	KindExternal      Kind = "external"
	KindInternal      Kind = "internal"
)

// Sentinel signals, one per distinct failure mode in the error taxonomy.
// Callers match with errors.Is(err, apperrors.ErrMaxAgents) etc.
var (
	ErrMaxAgents              = errors.New("max-agents")
	ErrMaxExecutions          = errors.New("max-executions")
	ErrQueueFull              = errors.New("queue-full")
	ErrNoTerminals            = errors.New("no-terminals")
	ErrApprovalFull           = errors.New("approval-full")
	ErrApprovalPerAgentFull   = errors.New("approval-per-agent-full")
	ErrAgentNotFound          = errors.New("agent-not-found")
	ErrCommandNotFound        = errors.New("command-not-found")
	ErrExecutionNotFound      = errors.New("execution-not-found")
	ErrTerminalNotFound       = errors.New("terminal-not-found")
	ErrApprovalNotFound       = errors.New("approval-request-not-found")
	ErrInvalidTransition      = errors.New("invalid-transition")
	ErrCapabilityMismatch     = errors.New("capability-mismatch")
	ErrDependenciesUnsatisfied = errors.New("dependencies-not-satisfied")
	ErrNotApproved            = errors.New("not-approved")
	ErrAlreadyApproved        = errors.New("already-approved")
	ErrInvalidDependencies    = errors.New("invalid-dependencies")
	ErrApprovalTimedOut       = errors.New("approval-timed-out")
	ErrSpawnFailed            = errors.New("spawn-failed")
	ErrNoDomainConfigured     = errors.New("no-domain-configured")
	ErrInternalExecutionError = errors.New("internal-execution-error")
)

var kindBySignal = map[error]Kind{
	ErrMaxAgents:               KindResourceCap,
	ErrMaxExecutions:           KindResourceCap,
	ErrQueueFull:               KindResourceCap,
	ErrNoTerminals:             KindResourceCap,
	ErrApprovalFull:            KindResourceCap,
	ErrApprovalPerAgentFull:    KindResourceCap,
	ErrAgentNotFound:           KindNotFound,
	ErrCommandNotFound:         KindNotFound,
	ErrExecutionNotFound:       KindNotFound,
	ErrTerminalNotFound:        KindNotFound,
	ErrApprovalNotFound:        KindNotFound,
	ErrInvalidTransition:       KindPrecondition,
	ErrCapabilityMismatch:      KindPrecondition,
	ErrDependenciesUnsatisfied: KindPrecondition,
	ErrNotApproved:             KindPrecondition,
	ErrAlreadyApproved:         KindPrecondition,
	ErrInvalidDependencies:     KindPrecondition,
	ErrApprovalTimedOut:        KindTiming,
	ErrSpawnFailed:             KindExternal,
	ErrNoDomainConfigured:      KindExternal,
	ErrInternalExecutionError:  KindInternal,
}

// AppError carries a signal, the entities involved, and an optional wrapped
// cause (used for external errors surfaced by a Domain/Pane implementation).
type AppError struct {
	Signal   error
	Entities map[string]string
	Err      error
}

// Error implements the error interface. Entity annotations are rendered in
// sorted key order so the message is stable across calls.
func (e *AppError) Error() string {
	msg := e.Signal.Error()
	keys := make([]string, 0, len(e.Entities))
	for k := range e.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		msg = fmt.Sprintf("%s [%s=%s]", msg, k, e.Entities[k])
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the signal and the cause to errors.Is/errors.As.
func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Signal, e.Err}
	}
	return []error{e.Signal}
}

// Kind classifies the error by its place in the taxonomy above.
func (e *AppError) Kind() Kind {
	if k, ok := kindBySignal[e.Signal]; ok {
		return k
	}
	return KindInternal
}

// New builds an AppError for a signal, annotated with entity ids for
// diagnostics (e.g. New(ErrAgentNotFound, "agent_id", id)).
func New(signal error, kv ...string) *AppError {
	entities := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		entities[kv[i]] = kv[i+1]
	}
	return &AppError{Signal: signal, Entities: entities}
}

// Wrap builds an AppError for an external signal that wraps an underlying
// cause (e.g. a domain's spawn_pane failure).
func Wrap(signal error, cause error, kv ...string) *AppError {
	err := New(signal, kv...)
	err.Err = cause
	return err
}

// Is reports whether err carries the given signal, looking through AppError
// wrapping as well as plain errors.Is chains.
func Is(err error, signal error) bool {
	return errors.Is(err, signal)
}
