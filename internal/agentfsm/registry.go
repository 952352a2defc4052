package agentfsm

import (
	"sync"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// Registry tracks every spawned agent by id, using the same
// map-plus-mutex instance tracking as the backend's lifecycle.Manager.
type Registry struct {
	mu        sync.RWMutex
	agents    map[orchestype.AgentID]*Agent
	idCounter orchestype.Counter
	maxAgents int
}

// NewRegistry creates an empty registry with the given hard cap on
// concurrently spawned agents.
func NewRegistry(maxAgents int) *Registry {
	return &Registry{
		agents:    make(map[orchestype.AgentID]*Agent),
		maxAgents: maxAgents,
	}
}

// Spawn creates a new Idle agent with the given capabilities. Fails with
// ErrMaxAgents if the registry is at capacity.
func (r *Registry) Spawn(caps orchestype.CapabilitySet) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxAgents > 0 && len(r.agents) >= r.maxAgents {
		return nil, apperrors.New(apperrors.ErrMaxAgents)
	}

	id := orchestype.AgentID(r.idCounter.Next())
	agent := New(id, caps)
	r.agents[id] = agent
	return agent, nil
}

// Get returns the agent with the given id.
func (r *Registry) Get(id orchestype.AgentID) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrAgentNotFound, "agent_id", id.String())
	}
	return agent, nil
}

// All returns every tracked agent, in an unspecified order.
func (r *Registry) All() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		out = append(out, agent)
	}
	return out
}

// Count returns the number of tracked agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
