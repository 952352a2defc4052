// Package orchestype holds the identifier and capability types shared by
// every orchestrator component (spec component C1): opaque ids, the
// capability set, and the command-type enum.
package orchestype

import (
	"fmt"
	"sync/atomic"
)

// AgentID, CommandID, ExecutionID, TerminalSlotID, ApprovalRequestID, PaneID
// and DomainID are opaque, monotonically allocated, totally ordered
// identifiers. They are never reused within a process lifetime.
type (
	AgentID           uint64
	CommandID         uint64
	ExecutionID       uint64
	TerminalSlotID    uint64
	ApprovalRequestID uint64
	PaneID            uint64
	DomainID          uint64
)

func (id AgentID) String() string           { return fmt.Sprintf("agent-%d", uint64(id)) }
func (id CommandID) String() string         { return fmt.Sprintf("cmd-%d", uint64(id)) }
func (id ExecutionID) String() string       { return fmt.Sprintf("exec-%d", uint64(id)) }
func (id TerminalSlotID) String() string    { return fmt.Sprintf("term-%d", uint64(id)) }
func (id ApprovalRequestID) String() string { return fmt.Sprintf("approval-%d", uint64(id)) }
func (id PaneID) String() string            { return fmt.Sprintf("pane-%d", uint64(id)) }
func (id DomainID) String() string          { return fmt.Sprintf("domain-%d", uint64(id)) }

// Counter allocates a monotonically increasing, never-reused sequence of
// uint64 values starting at 1. It is the backing generator for every id
// type above; each sub-manager owns one.
type Counter struct {
	next uint64
}

// Next returns the next value in the sequence.
func (c *Counter) Next() uint64 {
	return atomic.AddUint64(&c.next, 1)
}
