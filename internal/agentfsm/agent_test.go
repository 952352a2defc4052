package agentfsm

import (
	"errors"
	"testing"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

func newTestAgent() *Agent {
	return New(1, orchestype.NewCapabilitySet(orchestype.CapabilityShell))
}

func TestAgentHappyPathLifecycle(t *testing.T) {
	a := newTestAgent()

	if err := a.Assign(10); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.State() != StateAssigned {
		t.Fatalf("expected Assigned, got %s", a.State())
	}

	if err := a.BeginExecution(100); err != nil {
		t.Fatalf("BeginExecution: %v", err)
	}
	if a.State() != StateExecuting {
		t.Fatalf("expected Executing, got %s", a.State())
	}
	execID, ok := a.CurrentExecutionID()
	if !ok || execID != 100 {
		t.Fatalf("expected execution id 100, got %v (ok=%v)", execID, ok)
	}

	if err := a.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if a.State() != StateCompleted {
		t.Fatalf("expected Completed, got %s", a.State())
	}
	// current_command_id is retained until Reset.
	cmdID, ok := a.CurrentCommandID()
	if !ok || cmdID != 10 {
		t.Fatalf("expected command id to be retained as 10, got %v (ok=%v)", cmdID, ok)
	}
	if _, ok := a.CurrentExecutionID(); ok {
		t.Fatal("expected execution id cleared on Complete")
	}

	if err := a.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if a.State() != StateIdle {
		t.Fatalf("expected Idle, got %s", a.State())
	}
	if _, ok := a.CurrentCommandID(); ok {
		t.Fatal("expected command id cleared on Reset")
	}
}

func TestAgentInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	a := newTestAgent()

	// begin_execution illegal from Idle.
	if err := a.BeginExecution(1); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if a.State() != StateIdle {
		t.Fatalf("state mutated on failed transition: %s", a.State())
	}

	if err := a.Assign(1); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// complete/fail illegal from Assigned.
	if err := a.Complete(); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := a.Fail(); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if a.State() != StateAssigned {
		t.Fatalf("state mutated on failed transition: %s", a.State())
	}

	// re-assigning from Assigned must be rejected.
	if err := a.Assign(2); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition re-assigning, got %v", err)
	}
}

func TestAgentCancelFromAssignedAndExecuting(t *testing.T) {
	a := newTestAgent()
	_ = a.Assign(1)
	if err := a.Cancel(); err != nil {
		t.Fatalf("Cancel from Assigned: %v", err)
	}
	if a.State() != StateCancelled {
		t.Fatalf("expected Cancelled, got %s", a.State())
	}
	if err := a.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	_ = a.Assign(2)
	_ = a.BeginExecution(20)
	if err := a.Cancel(); err != nil {
		t.Fatalf("Cancel from Executing: %v", err)
	}
	if a.State() != StateCancelled {
		t.Fatalf("expected Cancelled, got %s", a.State())
	}
}

func TestAgentResetOnlyFromTerminalStates(t *testing.T) {
	a := newTestAgent()
	if err := a.Reset(); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition resetting from Idle, got %v", err)
	}
}

func TestRegistrySpawnRespectsMaxAgents(t *testing.T) {
	r := NewRegistry(1)
	shell := orchestype.NewCapabilitySet(orchestype.CapabilityShell)

	if _, err := r.Spawn(shell); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	if _, err := r.Spawn(shell); !errors.Is(err, apperrors.ErrMaxAgents) {
		t.Fatalf("expected ErrMaxAgents, got %v", err)
	}
}
