// Package terminal implements the terminal-slot pool (spec component C5):
// a fixed-capacity set of slots, each optionally carrying an attached pane
// and terminal parser while an execution runs in it.
package terminal

import (
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/orchestype"
	"github.com/kandev/orchestrator/internal/termparser"
)

// Availability is a terminal slot's two-state lifecycle.
type Availability string

const (
	Available Availability = "available"
	InUse     Availability = "in_use"
)

// Slot is a fixed-capacity placeholder that optionally carries an attached
// pane and parser while an execution runs. When Available, resources and
// the execution id must be unset.
type Slot struct {
	id           orchestype.TerminalSlotID
	availability Availability
	executionID  *orchestype.ExecutionID

	pane           domain.Pane
	terminalParser *termparser.Parser
	domainID       *orchestype.DomainID
}

func (s *Slot) ID() orchestype.TerminalSlotID   { return s.id }
func (s *Slot) Availability() Availability      { return s.availability }
func (s *Slot) Pane() domain.Pane               { return s.pane }
func (s *Slot) TerminalParser() *termparser.Parser { return s.terminalParser }

// ExecutionID returns the execution currently occupying the slot, if any.
func (s *Slot) ExecutionID() (orchestype.ExecutionID, bool) {
	if s.executionID == nil {
		return 0, false
	}
	return *s.executionID, true
}

// DomainID returns the domain that owns the attached pane, if any.
func (s *Slot) DomainID() (orchestype.DomainID, bool) {
	if s.domainID == nil {
		return 0, false
	}
	return *s.domainID, true
}
