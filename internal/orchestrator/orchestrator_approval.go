package orchestrator

import (
	"github.com/kandev/orchestrator/internal/approval"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// RequestApproval submits an approval request on behalf of agentID for
// commandID. The gated Action defaults to the CommandType -> Action
// mapping; a caller that needs to disambiguate (e.g. a FileOp read vs.
// write) may pass an explicit override.
func (o *Orchestrator) RequestApproval(agentID orchestype.AgentID, commandID orchestype.CommandID, override *approval.Action) (*approval.Request, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requestApproval(agentID, commandID, override)
}

func (o *Orchestrator) requestApproval(agentID orchestype.AgentID, commandID orchestype.CommandID, override *approval.Action) (*approval.Request, error) {
	if _, err := o.agents.Get(agentID); err != nil {
		return nil, err
	}
	cmd, err := o.queue.Get(commandID)
	if err != nil {
		return nil, err
	}

	action := approval.ActionForCommandType(cmd.Type())
	if override != nil {
		action = *override
	}

	req, err := o.approvals.SubmitRequest(agentID, action, cmd.Description())
	if err != nil {
		return nil, err
	}
	o.approvalCommand[req.ID()] = commandID
	return req, nil
}

// ApproveRequest passes through to the approval manager and, on success,
// sets the associated command's approval bit.
func (o *Orchestrator) ApproveRequest(id orchestype.ApprovalRequestID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.approveRequest(id)
}

func (o *Orchestrator) approveRequest(id orchestype.ApprovalRequestID) error {
	if err := o.approvals.Approve(id); err != nil {
		return err
	}
	if cmdID, ok := o.approvalCommand[id]; ok {
		_ = o.queue.Approve(cmdID)
	}
	return nil
}

// RejectRequest passes through to the approval manager. The underlying
// command's approval bit is never set by a rejected request.
func (o *Orchestrator) RejectRequest(id orchestype.ApprovalRequestID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.approvals.Reject(id)
}

// CancelRequest passes through to the approval manager.
func (o *Orchestrator) CancelRequest(agentID orchestype.AgentID, id orchestype.ApprovalRequestID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.approvals.Cancel(agentID, id)
}

// ProcessApprovalTimeouts sweeps pending approval requests aged past their
// timeout, returning the number swept.
func (o *Orchestrator) ProcessApprovalTimeouts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.approvals.ProcessTimeouts()
}

// AuditLog returns the approval manager's audit entries in chronological
// order.
func (o *Orchestrator) AuditLog() []approval.AuditEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.approvals.AuditLog()
}
