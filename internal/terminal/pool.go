package terminal

import (
	"sync"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/orchestype"
	"github.com/kandev/orchestrator/internal/termparser"
)

// Pool is a fixed-capacity set of terminal slots, created up front and
// never destroyed. Allocation is O(1): a free-list of available slot ids is
// maintained alongside the slot map, avoiding a linear scan.
type Pool struct {
	mu        sync.RWMutex
	slots     map[orchestype.TerminalSlotID]*Slot
	available []orchestype.TerminalSlotID // stack of available slot ids
}

// NewPool creates a pool of n slots, all Available.
func NewPool(n int) *Pool {
	p := &Pool{
		slots:     make(map[orchestype.TerminalSlotID]*Slot, n),
		available: make([]orchestype.TerminalSlotID, 0, n),
	}
	for i := 1; i <= n; i++ {
		id := orchestype.TerminalSlotID(i)
		p.slots[id] = &Slot{id: id, availability: Available}
		p.available = append(p.available, id)
	}
	return p
}

// Allocate reserves the next Available slot for an execution. Fails with
// ErrNoTerminals if the pool is fully in use.
func (p *Pool) Allocate(execID orchestype.ExecutionID) (*Slot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.available) == 0 {
		return nil, apperrors.New(apperrors.ErrNoTerminals)
	}

	n := len(p.available)
	id := p.available[n-1]
	p.available = p.available[:n-1]

	slot := p.slots[id]
	slot.availability = InUse
	slot.executionID = &execID
	return slot, nil
}

// Release clears a slot's execution and attached resources and returns it
// to Available. Legal only while InUse. Any kill/dispose of an attached
// pane is the domain's responsibility — the pool only drops its reference.
func (p *Pool) Release(id orchestype.TerminalSlotID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[id]
	if !ok {
		return apperrors.New(apperrors.ErrTerminalNotFound, "terminal_id", id.String())
	}
	if slot.availability != InUse {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"terminal_id", id.String(), "op", "release")
	}

	slot.availability = Available
	slot.executionID = nil
	slot.pane = nil
	slot.terminalParser = nil
	slot.domainID = nil
	p.available = append(p.available, id)
	return nil
}

// AttachPane enriches an allocated slot with a spawned pane and the domain
// that owns it. Only meaningful while the slot is InUse.
func (p *Pool) AttachPane(id orchestype.TerminalSlotID, pane domain.Pane, domainID orchestype.DomainID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[id]
	if !ok {
		return apperrors.New(apperrors.ErrTerminalNotFound, "terminal_id", id.String())
	}
	if slot.availability != InUse {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"terminal_id", id.String(), "op", "attach_pane")
	}
	slot.pane = pane
	slot.domainID = &domainID
	return nil
}

// AttachTerminal enriches an allocated slot with a terminal-parser
// instance. Only meaningful while the slot is InUse.
func (p *Pool) AttachTerminal(id orchestype.TerminalSlotID, parser *termparser.Parser) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[id]
	if !ok {
		return apperrors.New(apperrors.ErrTerminalNotFound, "terminal_id", id.String())
	}
	if slot.availability != InUse {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"terminal_id", id.String(), "op", "attach_terminal")
	}
	slot.terminalParser = parser
	return nil
}

// SetExecutionID fixes up a slot's execution id after the real id is known:
// the slot is allocated with a placeholder before the tracker assigns the
// execution's real id. Only meaningful while InUse.
func (p *Pool) SetExecutionID(id orchestype.TerminalSlotID, execID orchestype.ExecutionID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.slots[id]
	if !ok {
		return apperrors.New(apperrors.ErrTerminalNotFound, "terminal_id", id.String())
	}
	if slot.availability != InUse {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"terminal_id", id.String(), "op", "set_execution_id")
	}
	slot.executionID = &execID
	return nil
}

// Get returns the slot with the given id.
func (p *Pool) Get(id orchestype.TerminalSlotID) (*Slot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	slot, ok := p.slots[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrTerminalNotFound, "terminal_id", id.String())
	}
	return slot, nil
}

// AvailableCount returns the number of Available slots.
func (p *Pool) AvailableCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.available)
}

// InUseCount returns the number of InUse slots.
func (p *Pool) InUseCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots) - len(p.available)
}

// Size returns the pool's fixed capacity.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}
