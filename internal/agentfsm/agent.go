// Package agentfsm implements the per-agent lifecycle state machine (spec
// component C2): Idle → Assigned → Executing → {Completed|Failed|Cancelled}
// → Idle, with Cancel reachable from Assigned and Executing.
package agentfsm

import (
	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// State is one of an agent's lifecycle states.
type State string

const (
	StateIdle      State = "idle"
	StateAssigned  State = "assigned"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Agent is a single autonomous worker. Its state may only change through
// the methods below, each of which is atomic: on failure the agent is left
// exactly as it was.
//
// Invariant: current_execution_id is set if and only if state == Executing.
// current_command_id is set in every state except Idle, and is cleared only
// by Reset.
type Agent struct {
	id           orchestype.AgentID
	capabilities orchestype.CapabilitySet
	state        State
	commandID    *orchestype.CommandID
	executionID  *orchestype.ExecutionID
}

// New constructs an Idle agent with the given capabilities. Capabilities
// must be non-empty; callers (the orchestrator's SpawnAgent) are
// responsible for enforcing that before calling New.
func New(id orchestype.AgentID, caps orchestype.CapabilitySet) *Agent {
	return &Agent{id: id, capabilities: caps, state: StateIdle}
}

func (a *Agent) ID() orchestype.AgentID                 { return a.id }
func (a *Agent) Capabilities() orchestype.CapabilitySet { return a.capabilities }
func (a *Agent) State() State                           { return a.state }

// CurrentCommandID returns the command this agent is working (or last
// worked), and whether one is set.
func (a *Agent) CurrentCommandID() (orchestype.CommandID, bool) {
	if a.commandID == nil {
		return 0, false
	}
	return *a.commandID, true
}

// CurrentExecutionID returns the execution this agent is running, and
// whether one is set.
func (a *Agent) CurrentExecutionID() (orchestype.ExecutionID, bool) {
	if a.executionID == nil {
		return 0, false
	}
	return *a.executionID, true
}

func invalidTransition(a *Agent, op string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrInvalidTransition,
		"agent_id", a.id.String(), "state", string(a.state), "op", op)
}

// Assign transitions Idle → Assigned, recording the command id. Legal only
// from Idle.
func (a *Agent) Assign(commandID orchestype.CommandID) error {
	if a.state != StateIdle {
		return invalidTransition(a, "assign")
	}
	a.commandID = &commandID
	a.state = StateAssigned
	return nil
}

// BeginExecution transitions Assigned → Executing, recording the execution
// id. Legal only from Assigned.
func (a *Agent) BeginExecution(executionID orchestype.ExecutionID) error {
	if a.state != StateAssigned {
		return invalidTransition(a, "begin_execution")
	}
	a.executionID = &executionID
	a.state = StateExecuting
	return nil
}

// Complete transitions Executing → Completed. The command id is retained
// for inspection until Reset is called; the execution id is cleared since
// the execution itself is now terminal. Legal only from Executing.
func (a *Agent) Complete() error {
	if a.state != StateExecuting {
		return invalidTransition(a, "complete")
	}
	a.executionID = nil
	a.state = StateCompleted
	return nil
}

// Fail transitions Executing → Failed. Legal only from Executing.
func (a *Agent) Fail() error {
	if a.state != StateExecuting {
		return invalidTransition(a, "fail")
	}
	a.executionID = nil
	a.state = StateFailed
	return nil
}

// Cancel transitions Assigned or Executing → Cancelled.
func (a *Agent) Cancel() error {
	if a.state != StateAssigned && a.state != StateExecuting {
		return invalidTransition(a, "cancel")
	}
	a.executionID = nil
	a.state = StateCancelled
	return nil
}

// Reset transitions Completed, Failed, or Cancelled → Idle, clearing both
// the command and execution ids. Legal only from a terminal state.
func (a *Agent) Reset() error {
	switch a.state {
	case StateCompleted, StateFailed, StateCancelled:
		a.commandID = nil
		a.executionID = nil
		a.state = StateIdle
		return nil
	default:
		return invalidTransition(a, "reset")
	}
}
