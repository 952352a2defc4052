// Package command implements the command queue (spec component C3): the
// Command type itself plus the FIFO queue with approval bit and dependency
// resolution.
package command

import (
	"time"

	"github.com/kandev/orchestrator/internal/orchestype"
)

// Spec describes a command to be enqueued. The queue assigns the id.
type Spec struct {
	Type                 orchestype.CommandType
	Payload              string
	Description          string
	RequiredCapabilities orchestype.CapabilitySet
	Dependencies         []orchestype.CommandID
	// Approved allows a caller to enqueue an already-approved command
	// (e.g. when RequireApproval is false). Approve can still be called
	// later; the transition remains monotonic false→true.
	Approved bool
}

// Command is a unit of work: a type, payload, dependencies, and an approval
// bit. It is immutable except for Approved, which only ever moves
// false→true.
type Command struct {
	id                   orchestype.CommandID
	commandType          orchestype.CommandType
	payload              string
	description          string
	requiredCapabilities orchestype.CapabilitySet
	dependencies         map[orchestype.CommandID]struct{}
	approved             bool
	queuedAt             time.Time
}

func (c *Command) ID() orchestype.CommandID                        { return c.id }
func (c *Command) Type() orchestype.CommandType                    { return c.commandType }
func (c *Command) Payload() string                                 { return c.payload }
func (c *Command) Description() string                             { return c.description }
func (c *Command) RequiredCapabilities() orchestype.CapabilitySet   { return c.requiredCapabilities }
func (c *Command) Approved() bool                                  { return c.approved }
func (c *Command) QueuedAt() time.Time                             { return c.queuedAt }

// Dependencies returns the set of command ids this command depends on.
func (c *Command) Dependencies() []orchestype.CommandID {
	out := make([]orchestype.CommandID, 0, len(c.dependencies))
	for id := range c.dependencies {
		out = append(out, id)
	}
	return out
}

// DependsOn reports whether id is one of this command's dependencies.
func (c *Command) DependsOn(id orchestype.CommandID) bool {
	_, ok := c.dependencies[id]
	return ok
}

// dependenciesSatisfied reports whether every dependency is present in
// completed.
func (c *Command) dependenciesSatisfied(completed map[orchestype.CommandID]struct{}) bool {
	for dep := range c.dependencies {
		if _, ok := completed[dep]; !ok {
			return false
		}
	}
	return true
}
