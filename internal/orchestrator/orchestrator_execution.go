package orchestrator

import (
	"context"

	"github.com/kandev/orchestrator/internal/agentfsm"
	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/execution"
	"github.com/kandev/orchestrator/internal/orchestype"
	"github.com/kandev/orchestrator/internal/termparser"
)

// BeginExecution transitions agentID Assigned -> Executing via a five-step
// algorithm: allocate a slot, optionally spawn a pane in the resolved
// domain, create a terminal parser, register the execution, then
// transition the agent. Any step failing after slot allocation releases
// the slot and leaves the agent in Assigned.
//
// domainID selects a registry domain when no default domain is configured
// (may be nil). cfg is plumbed opaquely to the domain's SpawnPane.
func (o *Orchestrator) BeginExecution(ctx context.Context, agentID orchestype.AgentID, domainID *orchestype.DomainID, cfg domain.PaneConfig) (*execution.Execution, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.beginExecution(ctx, agentID, domainID, cfg)
}

func (o *Orchestrator) beginExecution(ctx context.Context, agentID orchestype.AgentID, domainID *orchestype.DomainID, cfg domain.PaneConfig) (*execution.Execution, error) {
	agent, err := o.agents.Get(agentID)
	if err != nil {
		return nil, err
	}
	if agent.State() != agentfsm.StateAssigned {
		return nil, apperrors.New(apperrors.ErrInvalidTransition,
			"agent_id", agentID.String(), "state", string(agent.State()), "op", "begin_execution")
	}
	commandID, _ := agent.CurrentCommandID()
	cmd, err := o.queue.Get(commandID)
	if err != nil {
		return nil, err
	}
	if !cmd.Approved() {
		// The command must still be approved at the moment execution begins.
		return nil, apperrors.New(apperrors.ErrNotApproved, "command_id", commandID.String())
	}
	if !o.executions.CanStart() {
		return nil, apperrors.New(apperrors.ErrMaxExecutions)
	}

	// Step 1: allocate a slot with a placeholder execution id.
	slot, err := o.terminals.Allocate(0)
	if err != nil {
		return nil, err
	}

	// Step 2: optionally spawn a pane in the resolved domain.
	dom := o.resolveDomain(domainID)
	if dom != nil {
		pane, err := dom.SpawnPane(ctx, DefaultPaneCols, DefaultPaneRows, cfg)
		if err != nil {
			_ = o.terminals.Release(slot.ID())
			return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, err, "agent_id", agentID.String())
		}
		if err := o.terminals.AttachPane(slot.ID(), pane, dom.DomainID()); err != nil {
			_ = o.terminals.Release(slot.ID())
			return nil, err
		}
	}

	// Step 3: create a terminal-parser instance sized for the slot.
	parser := termparser.New(DefaultPaneCols, DefaultPaneRows)
	if err := o.terminals.AttachTerminal(slot.ID(), parser); err != nil {
		_ = o.terminals.Release(slot.ID())
		return nil, err
	}

	// Step 4: register the execution and fix up the slot's placeholder id.
	exec, err := o.executions.Start(agentID, commandID, slot.ID())
	if err != nil {
		_ = o.terminals.Release(slot.ID())
		return nil, err
	}
	if err := o.terminals.SetExecutionID(slot.ID(), exec.ID()); err != nil {
		_ = o.terminals.Release(slot.ID())
		return nil, err
	}
	o.executionSlots[exec.ID()] = slot.ID()

	// Step 5: transition the agent to Executing.
	if err := agent.BeginExecution(exec.ID()); err != nil {
		return nil, err
	}

	return exec, nil
}

// CompleteExecution transitions the agent's current execution to
// Succeeded, releases its slot, transitions the agent to Completed, and
// commits the command id into completed_commands.
func (o *Orchestrator) CompleteExecution(agentID orchestype.AgentID, exitCode int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completeExecution(agentID, exitCode)
}

func (o *Orchestrator) completeExecution(agentID orchestype.AgentID, exitCode int) error {
	agent, execID, commandID, err := o.executingAgent(agentID)
	if err != nil {
		return err
	}
	if err := o.executions.Succeed(execID, exitCode); err != nil {
		return err
	}
	o.releaseExecutionSlot(execID)
	if err := agent.Complete(); err != nil {
		return err
	}
	o.completedCommands[commandID] = struct{}{}
	o.queue.Remove(commandID)
	delete(o.assignedCommands, commandID)
	return nil
}

// FailExecution transitions the agent's current execution to Failed with
// an error message but no exit code. The command id is not committed to
// completed_commands.
func (o *Orchestrator) FailExecution(agentID orchestype.AgentID, msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failExecution(agentID, msg)
}

func (o *Orchestrator) failExecution(agentID orchestype.AgentID, msg string) error {
	agent, execID, commandID, err := o.executingAgent(agentID)
	if err != nil {
		return err
	}
	if err := o.executions.Fail(execID, msg); err != nil {
		return err
	}
	o.releaseExecutionSlot(execID)
	if err := agent.Fail(); err != nil {
		return err
	}
	delete(o.assignedCommands, commandID)
	return nil
}

// FailExecutionWithExitCode is FailExecution with a recorded exit code.
func (o *Orchestrator) FailExecutionWithExitCode(agentID orchestype.AgentID, code int, msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failExecutionWithExitCode(agentID, code, msg)
}

func (o *Orchestrator) failExecutionWithExitCode(agentID orchestype.AgentID, code int, msg string) error {
	agent, execID, commandID, err := o.executingAgent(agentID)
	if err != nil {
		return err
	}
	if err := o.executions.FailWithExitCode(execID, code, msg); err != nil {
		return err
	}
	o.releaseExecutionSlot(execID)
	if err := agent.Fail(); err != nil {
		return err
	}
	delete(o.assignedCommands, commandID)
	return nil
}

// CancelExecution transitions an Assigned or Executing agent to Cancelled,
// releasing its slot if one was held. It is immediate: the domain is never
// asked to kill an attached pane.
func (o *Orchestrator) CancelExecution(agentID orchestype.AgentID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelExecution(agentID)
}

func (o *Orchestrator) cancelExecution(agentID orchestype.AgentID) error {
	agent, err := o.agents.Get(agentID)
	if err != nil {
		return err
	}
	commandID, hasCommand := agent.CurrentCommandID()
	execID, hasExecution := agent.CurrentExecutionID()

	if err := agent.Cancel(); err != nil {
		return err
	}
	if hasExecution {
		_ = o.executions.Cancel(execID)
		o.releaseExecutionSlot(execID)
	}
	if hasCommand {
		delete(o.assignedCommands, commandID)
	}
	return nil
}

// executingAgent resolves agentID, asserts it is Executing, and returns
// its agent, current execution id, and current command id.
func (o *Orchestrator) executingAgent(agentID orchestype.AgentID) (*agentfsm.Agent, orchestype.ExecutionID, orchestype.CommandID, error) {
	agent, err := o.agents.Get(agentID)
	if err != nil {
		return nil, 0, 0, err
	}
	if agent.State() != agentfsm.StateExecuting {
		return nil, 0, 0, apperrors.New(apperrors.ErrInvalidTransition,
			"agent_id", agentID.String(), "state", string(agent.State()))
	}
	execID, _ := agent.CurrentExecutionID()
	commandID, _ := agent.CurrentCommandID()
	return agent, execID, commandID, nil
}

// releaseExecutionSlot releases the terminal slot held by execID, if any,
// and drops the orchestrator's execution-to-slot bookkeeping entry.
func (o *Orchestrator) releaseExecutionSlot(execID orchestype.ExecutionID) {
	slotID, ok := o.executionSlots[execID]
	if !ok {
		return
	}
	_ = o.terminals.Release(slotID)
	delete(o.executionSlots, execID)
}
