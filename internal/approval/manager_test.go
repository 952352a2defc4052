package approval

import (
	"errors"
	"testing"
	"time"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type recordingCallback struct {
	requests []*Request
}

func (r *recordingCallback) OnRequest(req *Request) {
	r.requests = append(r.requests, req)
}

type panickyCallback struct{}

func (panickyCallback) OnRequest(*Request) { panic("sink exploded") }

func newTestManager(cfg Config) (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	return NewManager(cfg, clock, nil), clock
}

func TestSubmitRequestRespectsCaps(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 1, MaxPerAgent: 1, Timeout: time.Minute})

	if _, err := m.SubmitRequest(1, ActionShell, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := m.SubmitRequest(2, ActionShell, "second"); !errors.Is(err, apperrors.ErrApprovalFull) {
		t.Fatalf("expected ErrApprovalFull, got %v", err)
	}
}

func TestSubmitRequestRespectsPerAgentCap(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 1, Timeout: time.Minute})

	if _, err := m.SubmitRequest(1, ActionShell, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := m.SubmitRequest(1, ActionShell, "second"); !errors.Is(err, apperrors.ErrApprovalPerAgentFull) {
		t.Fatalf("expected ErrApprovalPerAgentFull, got %v", err)
	}
	if _, err := m.SubmitRequest(2, ActionShell, "other agent"); err != nil {
		t.Fatalf("other agent should still fit: %v", err)
	}
}

func TestSubmitRequestNotifiesCallback(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute})
	cb := &recordingCallback{}
	m.SetCallback(cb)

	req, err := m.SubmitRequest(1, ActionNetwork, "reach out")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(cb.requests) != 1 || cb.requests[0].ID() != req.ID() {
		t.Fatalf("expected callback to observe submitted request, got %+v", cb.requests)
	}
}

func TestPanickingCallbackNeverFailsSubmit(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute})
	m.SetCallback(panickyCallback{})

	if _, err := m.SubmitRequest(1, ActionShell, "boom"); err != nil {
		t.Fatalf("submit must succeed despite panicking callback: %v", err)
	}
}

func TestApproveAndRejectOnlyLegalWhilePending(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute})
	req, _ := m.SubmitRequest(1, ActionShell, "run")

	if err := m.Approve(req.ID()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !m.IsApproved(req.ID()) {
		t.Fatal("expected request to be approved")
	}
	if err := m.Reject(req.ID()); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition rejecting an approved request, got %v", err)
	}
}

func TestCancelOnlyLegalForOwningAgent(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute})
	req, _ := m.SubmitRequest(1, ActionShell, "run")

	if err := m.Cancel(2, req.ID()); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for non-owning agent, got %v", err)
	}
	if err := m.Cancel(1, req.ID()); err != nil {
		t.Fatalf("owning agent cancel: %v", err)
	}
}

func TestProcessTimeoutsSweepsAgedPendingRequests(t *testing.T) {
	m, clock := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: 5 * time.Second})

	stale, _ := m.SubmitRequest(1, ActionShell, "stale")
	clock.now = clock.now.Add(3 * time.Second)
	fresh, _ := m.SubmitRequest(2, ActionShell, "fresh")

	clock.now = clock.now.Add(3 * time.Second) // stale is now 6s old, fresh is 3s old
	count := m.ProcessTimeouts()
	if count != 1 {
		t.Fatalf("expected exactly 1 timeout, got %d", count)
	}

	staleReq, _ := m.Get(stale.ID())
	if staleReq.State() != StateTimedOut {
		t.Fatalf("expected stale request timed out, got %s", staleReq.State())
	}
	freshReq, _ := m.Get(fresh.ID())
	if freshReq.State() != StatePending {
		t.Fatalf("expected fresh request still pending, got %s", freshReq.State())
	}

	if again := m.ProcessTimeouts(); again != 0 {
		t.Fatalf("expected sweep to be idempotent, got %d more", again)
	}
}

func TestPendingCountsTrackAcrossDecisions(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute})

	r1, _ := m.SubmitRequest(1, ActionShell, "one")
	_, _ = m.SubmitRequest(1, ActionShell, "two")
	if got := m.PendingCountForAgent(1); got != 2 {
		t.Fatalf("expected 2 pending for agent, got %d", got)
	}
	if got := m.PendingCount(); got != 2 {
		t.Fatalf("expected 2 pending overall, got %d", got)
	}

	if err := m.Approve(r1.ID()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := m.PendingCountForAgent(1); got != 1 {
		t.Fatalf("expected 1 pending for agent after decision, got %d", got)
	}
	if got := m.PendingCount(); got != 1 {
		t.Fatalf("expected 1 pending overall after decision, got %d", got)
	}
}

func TestAuditLogRingBufferDropsOldestOnOverflow(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute, MaxAuditEntries: 2})

	ids := make([]orchestype.ApprovalRequestID, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := m.SubmitRequest(1, ActionShell, "r")
		ids = append(ids, req.ID())
		if err := m.Approve(req.ID()); err != nil {
			t.Fatalf("approve %d: %v", i, err)
		}
	}

	log := m.AuditLog()
	if len(log) != 2 {
		t.Fatalf("expected ring buffer capped at 2, got %d", len(log))
	}
	if log[0].RequestID != ids[1] || log[1].RequestID != ids[2] {
		t.Fatalf("expected oldest entry dropped, got %+v", log)
	}
}

func TestUnknownRequestOperationsFail(t *testing.T) {
	m, _ := newTestManager(Config{MaxRequests: 10, MaxPerAgent: 10, Timeout: time.Minute})

	if _, err := m.Get(999); !errors.Is(err, apperrors.ErrApprovalNotFound) {
		t.Fatalf("expected ErrApprovalNotFound, got %v", err)
	}
	if err := m.Approve(999); !errors.Is(err, apperrors.ErrApprovalNotFound) {
		t.Fatalf("expected ErrApprovalNotFound, got %v", err)
	}
}
