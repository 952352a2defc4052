package approval

import (
	"time"

	"github.com/kandev/orchestrator/internal/orchestype"
)

// State is one of an approval request's lifecycle states. All but Pending
// are terminal.
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StateCancelled State = "cancelled"
	StateTimedOut  State = "timed_out"
)

func (s State) Terminal() bool { return s != StatePending }

// Request is a pending gate submitted for a command action. It transitions
// monotonically to exactly one terminal decision.
type Request struct {
	id          orchestype.ApprovalRequestID
	agentID     orchestype.AgentID
	action      Action
	description string
	state       State
	submittedAt time.Time
	decidedAt   *time.Time
}

func (r *Request) ID() orchestype.ApprovalRequestID { return r.id }
func (r *Request) AgentID() orchestype.AgentID       { return r.agentID }
func (r *Request) Action() Action                    { return r.action }
func (r *Request) Description() string               { return r.description }
func (r *Request) State() State                      { return r.state }
func (r *Request) SubmittedAt() time.Time             { return r.submittedAt }

// DecidedAt returns when the request reached a terminal state, if it has.
func (r *Request) DecidedAt() (time.Time, bool) {
	if r.decidedAt == nil {
		return time.Time{}, false
	}
	return *r.decidedAt, true
}

// AuditEntry is appended on every terminal approval transition.
type AuditEntry struct {
	RequestID orchestype.ApprovalRequestID
	AgentID   orchestype.AgentID
	Action    Action
	Decision  State
	At        time.Time
}

// Callback is the external approval sink capability: a fire-and-forget
// notification invoked outside any internal lock. Callback failures never
// fail SubmitRequest.
type Callback interface {
	OnRequest(request *Request)
}
