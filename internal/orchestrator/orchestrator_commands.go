package orchestrator

import (
	"github.com/kandev/orchestrator/internal/agentfsm"
	"github.com/kandev/orchestrator/internal/command"
	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// SpawnAgent creates a new Idle agent. Fails with ErrMaxAgents if the
// registry is at capacity, or ErrCapabilityMismatch if caps is empty.
func (o *Orchestrator) SpawnAgent(caps orchestype.CapabilitySet) (*agentfsm.Agent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spawnAgent(caps)
}

func (o *Orchestrator) spawnAgent(caps orchestype.CapabilitySet) (*agentfsm.Agent, error) {
	if caps.Empty() {
		return nil, apperrors.New(apperrors.ErrCapabilityMismatch, "reason", "empty_capabilities")
	}
	return o.agents.Spawn(caps)
}

// QueueCommand enqueues spec, validating dependencies against the union of
// queued and completed commands. If require_approval is configured, the
// command is forced unapproved regardless of spec.Approved.
func (o *Orchestrator) QueueCommand(spec command.Spec) (orchestype.CommandID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queueCommand(spec)
}

func (o *Orchestrator) queueCommand(spec command.Spec) (orchestype.CommandID, error) {
	if o.cfg.RequireApproval {
		spec.Approved = false
	}
	return o.queue.Enqueue(spec, o.completedCommands)
}

// AssignCommand transitions agentID Idle -> Assigned for commandID.
// Preconditions: the command exists and is approved, its dependencies are
// in completed_commands, it is not already assigned, the agent is Idle,
// and the agent's capabilities are a superset of the command's required
// capabilities.
func (o *Orchestrator) AssignCommand(agentID orchestype.AgentID, commandID orchestype.CommandID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.assignCommand(agentID, commandID)
}

func (o *Orchestrator) assignCommand(agentID orchestype.AgentID, commandID orchestype.CommandID) error {
	agent, err := o.agents.Get(agentID)
	if err != nil {
		return err
	}
	cmd, err := o.queue.Get(commandID)
	if err != nil {
		return err
	}
	if !cmd.Approved() {
		return apperrors.New(apperrors.ErrNotApproved, "command_id", commandID.String())
	}
	if holder, held := o.assignedCommands[commandID]; held {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"command_id", commandID.String(), "reason", "already assigned", "agent_id", holder.String())
	}
	for _, dep := range cmd.Dependencies() {
		if _, done := o.completedCommands[dep]; !done {
			return apperrors.New(apperrors.ErrDependenciesUnsatisfied,
				"command_id", commandID.String(), "dependency_id", dep.String())
		}
	}
	if !cmd.RequiredCapabilities().Subset(agent.Capabilities()) {
		return apperrors.New(apperrors.ErrCapabilityMismatch,
			"agent_id", agentID.String(), "command_id", commandID.String())
	}

	if err := agent.Assign(commandID); err != nil {
		return err
	}
	o.assignedCommands[commandID] = agentID
	return nil
}

// ResetAgent transitions a terminal-state agent back to Idle, clearing its
// command and execution references.
func (o *Orchestrator) ResetAgent(agentID orchestype.AgentID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resetAgent(agentID)
}

func (o *Orchestrator) resetAgent(agentID orchestype.AgentID) error {
	agent, err := o.agents.Get(agentID)
	if err != nil {
		return err
	}
	return agent.Reset()
}
