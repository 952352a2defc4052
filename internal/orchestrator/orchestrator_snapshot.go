package orchestrator

import (
	"github.com/kandev/orchestrator/internal/agentfsm"
	"github.com/kandev/orchestrator/internal/command"
	"github.com/kandev/orchestrator/internal/execution"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// GetAgent returns the agent with the given id.
func (o *Orchestrator) GetAgent(id orchestype.AgentID) (*agentfsm.Agent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agents.Get(id)
}

// GetCommand returns the command with the given id.
func (o *Orchestrator) GetCommand(id orchestype.CommandID) (*command.Command, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Get(id)
}

// GetExecution returns the execution with the given id.
func (o *Orchestrator) GetExecution(id orchestype.ExecutionID) (*execution.Execution, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.executions.Get(id)
}

// ReadyCommands returns commands that are approved, dependency-satisfied,
// and unassigned, in FIFO order.
func (o *Orchestrator) ReadyCommands() []*command.Command {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Ready(o.completedCommands, o.assignedSet())
}

// RunningExecutions returns every execution currently Running.
func (o *Orchestrator) RunningExecutions() []*execution.Execution {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.executions.Running()
}

// PendingApprovalCount returns the total number of Pending approval
// requests.
func (o *Orchestrator) PendingApprovalCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.approvals.PendingCount()
}

// TerminalStats summarizes the terminal-slot pool's occupancy.
type TerminalStats struct {
	Available int
	InUse     int
	Size      int
}

// TerminalStats returns the current terminal-slot pool occupancy.
func (o *Orchestrator) TerminalStats() TerminalStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return TerminalStats{
		Available: o.terminals.AvailableCount(),
		InUse:     o.terminals.InUseCount(),
		Size:      o.terminals.Size(),
	}
}

// ActiveExecutionCount returns the number of executions currently Running.
func (o *Orchestrator) ActiveExecutionCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.executions.RunningCount()
}

// AgentSnapshot is a plain, cloneable view of one agent's observable state.
type AgentSnapshot struct {
	ID          orchestype.AgentID
	State       agentfsm.State
	CommandID   *orchestype.CommandID
	ExecutionID *orchestype.ExecutionID
}

// Snapshot is a plain, cloneable record of the orchestrator's observable
// state, suitable for inspection, tests, and external serialization.
// Callback-holding pieces (the approval sink) are deliberately excluded.
type Snapshot struct {
	Agents             []AgentSnapshot
	CompletedCommands  int
	QueueSize          int
	ActiveExecutions   int
	TerminalsAvailable int
	TerminalsInUse     int
	PendingApprovals   int
	HasDomain          bool
}

// Snapshot returns a point-in-time view of the orchestrator's observable
// state. Two calls with no intervening operation yield equal snapshots.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

func (o *Orchestrator) snapshot() Snapshot {
	agents := o.sortedAgents()
	agentSnaps := make([]AgentSnapshot, 0, len(agents))
	for _, a := range agents {
		snap := AgentSnapshot{ID: a.ID(), State: a.State()}
		if id, ok := a.CurrentCommandID(); ok {
			idCopy := id
			snap.CommandID = &idCopy
		}
		if id, ok := a.CurrentExecutionID(); ok {
			idCopy := id
			snap.ExecutionID = &idCopy
		}
		agentSnaps = append(agentSnaps, snap)
	}

	return Snapshot{
		Agents:             agentSnaps,
		CompletedCommands:  len(o.completedCommands),
		QueueSize:          o.queue.Len(),
		ActiveExecutions:   o.executions.RunningCount(),
		TerminalsAvailable: o.terminals.AvailableCount(),
		TerminalsInUse:     o.terminals.InUseCount(),
		PendingApprovals:   o.approvals.PendingCount(),
		HasDomain:          o.defaultDomain != nil || len(o.domains) > 0,
	}
}
