package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/kandev/orchestrator/internal/agentfsm"
	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/execution"
	"github.com/kandev/orchestrator/internal/orchestype"
)

const defaultPollBufferBytes = 4096

// AutoAssign scans ready_commands in FIFO order and assigns each to the
// first Idle agent (by ascending agent id) whose capabilities satisfy the
// command's requirements. Returns the number of commands assigned.
func (o *Orchestrator) AutoAssign() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.autoAssign()
}

func (o *Orchestrator) autoAssign() int {
	agents := o.sortedAgents()
	ready := o.queue.Ready(o.completedCommands, o.assignedSet())

	assigned := 0
	for _, cmd := range ready {
		for _, agent := range agents {
			if agent.State() != agentfsm.StateIdle {
				continue
			}
			if !cmd.RequiredCapabilities().Subset(agent.Capabilities()) {
				continue
			}
			if err := o.assignCommand(agent.ID(), cmd.ID()); err == nil {
				assigned++
			}
			break
		}
	}
	return assigned
}

// AutoExecute begins execution for every Assigned agent, in ascending
// agent-id order, until the soft execution cap or the terminal pool is
// exhausted. There is no backtracking: once capacity runs out, the scan
// stops rather than skipping ahead.
func (o *Orchestrator) AutoExecute(ctx context.Context, cfg domain.PaneConfig) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.autoExecute(ctx, cfg)
}

func (o *Orchestrator) autoExecute(ctx context.Context, cfg domain.PaneConfig) int {
	executed := 0
	for _, agent := range o.sortedAgents() {
		if agent.State() != agentfsm.StateAssigned {
			continue
		}
		if !o.executions.CanStart() {
			break
		}
		if _, err := o.beginExecution(ctx, agent.ID(), nil, cfg); err != nil {
			if errors.Is(err, apperrors.ErrNoTerminals) {
				break
			}
			continue
		}
		executed++
	}
	return executed
}

// Step runs one auto_assign pass followed by one auto_execute pass.
func (o *Orchestrator) Step(ctx context.Context, cfg domain.PaneConfig) (assigned, executed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	assigned = o.autoAssign()
	executed = o.autoExecute(ctx, cfg)
	return
}

// CheckExecutionCompletion inspects a single Running execution's attached
// pane. It is a no-op (returns false, nil) if the execution is not
// Running, has no attached pane, or the pane is still alive. Otherwise it
// reads the pane's exit status (defaulting to -1 if unset) and routes to
// CompleteExecution or FailExecutionWithExitCode.
func (o *Orchestrator) CheckExecutionCompletion(execID orchestype.ExecutionID) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.checkExecutionCompletion(execID)
}

func (o *Orchestrator) checkExecutionCompletion(execID orchestype.ExecutionID) (bool, error) {
	exec, err := o.executions.Get(execID)
	if err != nil {
		return false, err
	}
	if exec.State() != execution.StateRunning {
		return false, nil
	}

	slotID, ok := o.executionSlots[execID]
	if !ok {
		return false, nil
	}
	slot, err := o.terminals.Get(slotID)
	if err != nil {
		return false, nil
	}
	pane := slot.Pane()
	if pane == nil || pane.IsAlive() {
		return false, nil
	}

	code, ok := pane.ExitStatus()
	if !ok {
		code = -1
	}

	if code == 0 {
		return true, o.completeExecution(exec.AgentID(), code)
	}
	return true, o.failExecutionWithExitCode(exec.AgentID(), code, "pane exited")
}

// CheckAllCompletions sweeps every Running execution via
// CheckExecutionCompletion, returning the number that completed.
func (o *Orchestrator) CheckAllCompletions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.checkAllCompletions()
}

func (o *Orchestrator) checkAllCompletions() int {
	completed := 0
	for _, exec := range o.executions.Running() {
		done, err := o.checkExecutionCompletion(exec.ID())
		if done && err == nil {
			completed++
		}
	}
	return completed
}

// PollExecutions performs one non-blocking read from each Running
// execution's attached pane, feeds the bytes through its terminal parser,
// appends them to the execution's stdout buffer, then sweeps completions.
// Returns the number of executions that completed this call.
func (o *Orchestrator) PollExecutions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pollExecutions()
}

func (o *Orchestrator) pollExecutions() int {
	buf := make([]byte, defaultPollBufferBytes)
	for _, exec := range o.executions.Running() {
		slotID, ok := o.executionSlots[exec.ID()]
		if !ok {
			continue
		}
		slot, err := o.terminals.Get(slotID)
		if err != nil {
			continue
		}
		pane := slot.Pane()
		if pane == nil {
			continue
		}

		n, err := pane.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		if parser := slot.TerminalParser(); parser != nil {
			_, _ = parser.Write(data)
		}
		o.executions.AppendStdout(exec.ID(), data)
	}
	return o.checkAllCompletions()
}

// RunMaintenance drives ProcessApprovalTimeouts and PollExecutions on a
// ticker until ctx is cancelled, the same shape as the backend's
// background-ticker maintenance loops. It is ambient scaffolding around
// the synchronous core operations, not itself part of the
// invariant-bearing API.
func (o *Orchestrator) RunMaintenance(ctx context.Context, interval time.Duration) {
	runID := uuid.NewString()
	o.logger.Info("maintenance loop started",
		zap.String("run_id", runID), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("maintenance loop stopped", zap.String("run_id", runID))
			return
		case <-ticker.C:
			o.ProcessApprovalTimeouts()
			o.PollExecutions()
		}
	}
}
