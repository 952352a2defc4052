package orchestype

import "strings"

// Capability is an authorization token for a class of actions an agent may
// perform, or a command may require.
type Capability uint16

const (
	CapabilityShell Capability = 1 << iota
	CapabilityFileOp
	CapabilityNetwork
	CapabilityGit
	CapabilityPackage
	CapabilityContainer
	CapabilityDatabase
	CapabilityAdmin
)

var capabilityNames = map[Capability]string{
	CapabilityShell:     "shell",
	CapabilityFileOp:    "file_op",
	CapabilityNetwork:   "network",
	CapabilityGit:       "git",
	CapabilityPackage:   "package",
	CapabilityContainer: "container",
	CapabilityDatabase:  "database",
	CapabilityAdmin:     "admin",
}

// allCapabilities enumerates every individual capability bit, in a stable
// order, for iteration and string rendering.
var allCapabilities = []Capability{
	CapabilityShell, CapabilityFileOp, CapabilityNetwork, CapabilityGit,
	CapabilityPackage, CapabilityContainer, CapabilityDatabase, CapabilityAdmin,
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

// CapabilitySet is a set of Capability values, represented as a bitmask for
// O(1) membership, union, and subset checks.
type CapabilitySet Capability

// NewCapabilitySet builds a CapabilitySet from individual capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= CapabilitySet(c)
	}
	return s
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	return Capability(s)&c != 0
}

// Empty reports whether the set has no members.
func (s CapabilitySet) Empty() bool {
	return s == 0
}

// Subset reports whether every capability in s is also in other — i.e.
// s ⊆ other.
func (s CapabilitySet) Subset(other CapabilitySet) bool {
	return Capability(s)&Capability(other) == Capability(s)
}

// Union returns the set of capabilities present in either set.
func (s CapabilitySet) Union(other CapabilitySet) CapabilitySet {
	return s | other
}

// List returns the individual capabilities present in the set, in a stable
// order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(allCapabilities))
	for _, c := range allCapabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CapabilitySet) String() string {
	names := make([]string, 0, len(allCapabilities))
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
