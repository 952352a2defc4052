// Package approval implements the approval manager (spec component C6):
// pending requests, decisions, timeouts, and a bounded audit log.
package approval

import (
	"sync"
	"time"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/common/logger"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/orchestype"
	"go.uber.org/zap"
)

// Config holds the approval manager's tunables.
type Config struct {
	MaxRequests     int
	MaxPerAgent     int
	Timeout         time.Duration
	MaxAuditEntries int
}

// Manager tracks approval requests with a configurable overall cap,
// per-agent cap, request timeout, and audit-log ring buffer.
type Manager struct {
	mu  sync.Mutex
	cfg Config

	clock    domain.Clock
	callback Callback
	logger   *logger.Logger

	requests        map[orchestype.ApprovalRequestID]*Request
	pendingByAgent  map[orchestype.AgentID]int
	pendingTotal    int
	idCounter       orchestype.Counter

	audit     []AuditEntry
	auditHead int // next write position in the ring
	auditFull bool
}

// NewManager creates an approval manager with the given configuration and
// clock. log may be nil, in which case callback panics are swallowed
// silently and never propagated to the caller.
func NewManager(cfg Config, clock domain.Clock, log *logger.Logger) *Manager {
	if cfg.MaxAuditEntries <= 0 {
		cfg.MaxAuditEntries = 500
	}
	return &Manager{
		cfg:            cfg,
		clock:          clock,
		logger:         log,
		requests:       make(map[orchestype.ApprovalRequestID]*Request),
		pendingByAgent: make(map[orchestype.AgentID]int),
		audit:          make([]AuditEntry, 0, cfg.MaxAuditEntries),
	}
}

// SetCallback registers (or clears, with nil) the external approval sink.
func (m *Manager) SetCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
}

// SubmitRequest creates a new Pending request for agentID. Fails with
// ErrApprovalFull (overall cap) or ErrApprovalPerAgentFull (per-agent cap).
// On success, invokes the registered callback outside the lock.
func (m *Manager) SubmitRequest(agentID orchestype.AgentID, action Action, description string) (*Request, error) {
	m.mu.Lock()

	if m.cfg.MaxRequests > 0 && m.pendingTotal >= m.cfg.MaxRequests {
		m.mu.Unlock()
		return nil, apperrors.New(apperrors.ErrApprovalFull)
	}
	if m.cfg.MaxPerAgent > 0 && m.pendingByAgent[agentID] >= m.cfg.MaxPerAgent {
		m.mu.Unlock()
		return nil, apperrors.New(apperrors.ErrApprovalPerAgentFull, "agent_id", agentID.String())
	}

	id := orchestype.ApprovalRequestID(m.idCounter.Next())
	req := &Request{
		id:          id,
		agentID:     agentID,
		action:      action,
		description: description,
		state:       StatePending,
		submittedAt: m.clock.Now(),
	}
	m.requests[id] = req
	m.pendingByAgent[agentID]++
	m.pendingTotal++

	cb := m.callback
	m.mu.Unlock()

	m.notify(cb, req)
	return req, nil
}

// notify invokes the callback outside any internal lock; a panicking
// callback is recovered and logged, never propagated.
func (m *Manager) notify(cb Callback, req *Request) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && m.logger != nil {
			m.logger.Error("approval callback panicked",
				zap.Any("recovered", r), zap.String("request_id", req.ID().String()))
		}
	}()
	cb.OnRequest(req)
}

func (m *Manager) decide(id orchestype.ApprovalRequestID, newState State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return apperrors.New(apperrors.ErrApprovalNotFound, "request_id", id.String())
	}
	if req.state != StatePending {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"request_id", id.String(), "state", string(req.state))
	}

	m.terminalize(req, newState)
	return nil
}

// terminalize moves a request to a terminal state and appends an audit
// entry. Must be called with m.mu held.
func (m *Manager) terminalize(req *Request, newState State) {
	now := m.clock.Now()
	req.state = newState
	req.decidedAt = &now

	m.pendingByAgent[req.agentID]--
	if m.pendingByAgent[req.agentID] <= 0 {
		delete(m.pendingByAgent, req.agentID)
	}
	m.pendingTotal--

	m.appendAudit(AuditEntry{
		RequestID: req.id,
		AgentID:   req.agentID,
		Action:    req.action,
		Decision:  newState,
		At:        now,
	})
}

// appendAudit writes into the bounded ring buffer, dropping the oldest
// entry on overflow. Must be called with m.mu held.
func (m *Manager) appendAudit(entry AuditEntry) {
	if len(m.audit) < m.cfg.MaxAuditEntries {
		m.audit = append(m.audit, entry)
		return
	}
	m.audit[m.auditHead] = entry
	m.auditHead = (m.auditHead + 1) % m.cfg.MaxAuditEntries
	m.auditFull = true
}

// Approve transitions a Pending request to Approved.
func (m *Manager) Approve(id orchestype.ApprovalRequestID) error {
	return m.decide(id, StateApproved)
}

// Reject transitions a Pending request to Rejected.
func (m *Manager) Reject(id orchestype.ApprovalRequestID) error {
	return m.decide(id, StateRejected)
}

// Cancel transitions a Pending request to Cancelled. Legal only for the
// owning agent.
func (m *Manager) Cancel(agentID orchestype.AgentID, id orchestype.ApprovalRequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return apperrors.New(apperrors.ErrApprovalNotFound, "request_id", id.String())
	}
	if req.agentID != agentID {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"request_id", id.String(), "reason", "not owning agent")
	}
	if req.state != StatePending {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"request_id", id.String(), "state", string(req.state))
	}

	m.terminalize(req, StateCancelled)
	return nil
}

// ProcessTimeouts scans Pending requests and transitions any whose age has
// reached the configured timeout to TimedOut, returning the count.
func (m *Manager) ProcessTimeouts() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	count := 0
	for _, req := range m.requests {
		if req.state != StatePending {
			continue
		}
		if now.Sub(req.submittedAt) >= m.cfg.Timeout {
			m.terminalize(req, StateTimedOut)
			count++
		}
	}
	return count
}

// Get returns the request with the given id.
func (m *Manager) Get(id orchestype.ApprovalRequestID) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrApprovalNotFound, "request_id", id.String())
	}
	return req, nil
}

// IsPending reports whether a request is currently Pending.
func (m *Manager) IsPending(id orchestype.ApprovalRequestID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	return ok && req.state == StatePending
}

// IsApproved reports whether a request reached the Approved state.
func (m *Manager) IsApproved(id orchestype.ApprovalRequestID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	return ok && req.state == StateApproved
}

// PendingCount returns the total number of Pending requests.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingTotal
}

// PendingCountForAgent returns the number of Pending requests owned by
// agentID.
func (m *Manager) PendingCountForAgent(agentID orchestype.AgentID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingByAgent[agentID]
}

// AuditLog returns the audit entries in chronological order.
func (m *Manager) AuditLog() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.auditFull {
		out := make([]AuditEntry, len(m.audit))
		copy(out, m.audit)
		return out
	}

	out := make([]AuditEntry, 0, len(m.audit))
	out = append(out, m.audit[m.auditHead:]...)
	out = append(out, m.audit[:m.auditHead]...)
	return out
}
