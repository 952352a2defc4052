// Package execution implements the execution tracker (spec component C4):
// the record of a single attempt to run a command, and the map of all
// executions with a soft cap on concurrent Running ones.
package execution

import (
	"time"

	"github.com/kandev/orchestrator/internal/orchestype"
)

// State is one of an execution's lifecycle states. Running is the only
// non-terminal state; a Running execution transitions exactly once to one
// terminal state.
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) Terminal() bool {
	return s != StateRunning
}

// Execution is the record of a single attempt to run a command.
type Execution struct {
	id        orchestype.ExecutionID
	agentID   orchestype.AgentID
	commandID orchestype.CommandID
	terminalID orchestype.TerminalSlotID
	state     State
	exitCode  *int
	errMsg    string
	startedAt time.Time
	finishedAt *time.Time
	stdout    []byte
	stderr    []byte
}

func (e *Execution) ID() orchestype.ExecutionID           { return e.id }
func (e *Execution) AgentID() orchestype.AgentID           { return e.agentID }
func (e *Execution) CommandID() orchestype.CommandID       { return e.commandID }
func (e *Execution) TerminalID() orchestype.TerminalSlotID { return e.terminalID }
func (e *Execution) State() State                          { return e.state }
func (e *Execution) StartedAt() time.Time                  { return e.startedAt }
func (e *Execution) ErrorMessage() string                  { return e.errMsg }

// ExitCode returns the recorded exit code and whether one was set.
func (e *Execution) ExitCode() (int, bool) {
	if e.exitCode == nil {
		return 0, false
	}
	return *e.exitCode, true
}

// FinishedAt returns the completion time and whether the execution has
// reached a terminal state.
func (e *Execution) FinishedAt() (time.Time, bool) {
	if e.finishedAt == nil {
		return time.Time{}, false
	}
	return *e.finishedAt, true
}

// Stdout returns a copy of the accumulated stdout buffer.
func (e *Execution) Stdout() []byte {
	out := make([]byte, len(e.stdout))
	copy(out, e.stdout)
	return out
}

// Stderr returns a copy of the accumulated stderr buffer.
func (e *Execution) Stderr() []byte {
	out := make([]byte, len(e.stderr))
	copy(out, e.stderr)
	return out
}
