package command

import (
	"container/list"
	"sync"
	"time"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// Queue is a FIFO store of pending commands with an approval bit and a
// dependency graph: a map plus an ordered container guarded by a single
// mutex, ordered strictly by arrival rather than by priority.
type Queue struct {
	mu        sync.RWMutex
	order     *list.List // of *Command, oldest first
	byID      map[orchestype.CommandID]*list.Element
	idCounter orchestype.Counter
	maxSize   int
}

// New creates an empty queue with the given hard capacity.
func New(maxSize int) *Queue {
	return &Queue{
		order:   list.New(),
		byID:    make(map[orchestype.CommandID]*list.Element),
		maxSize: maxSize,
	}
}

// Enqueue adds a command built from spec to the queue and returns its id.
// completed is the orchestrator's completed-commands set, consulted to
// validate dependencies at enqueue time: every dependency must already be
// queued or already completed.
func (q *Queue) Enqueue(spec Spec, completed map[orchestype.CommandID]struct{}) (orchestype.CommandID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxSize > 0 && q.order.Len() >= q.maxSize {
		return 0, apperrors.New(apperrors.ErrQueueFull)
	}

	deps := make(map[orchestype.CommandID]struct{}, len(spec.Dependencies))
	for _, dep := range spec.Dependencies {
		if _, queued := q.byID[dep]; !queued {
			if _, done := completed[dep]; !done {
				return 0, apperrors.New(apperrors.ErrInvalidDependencies,
					"dependency_id", dep.String())
			}
		}
		deps[dep] = struct{}{}
	}

	id := orchestype.CommandID(q.idCounter.Next())
	cmd := &Command{
		id:                   id,
		commandType:          spec.Type,
		payload:              spec.Payload,
		description:          spec.Description,
		requiredCapabilities: spec.RequiredCapabilities,
		dependencies:         deps,
		approved:             spec.Approved,
		queuedAt:             time.Now(),
	}

	el := q.order.PushBack(cmd)
	q.byID[id] = el
	return id, nil
}

// Approve sets a command's approval bit. It is monotonic and idempotent: a
// repeat call on an already-approved command succeeds without effect.
func (q *Queue) Approve(id orchestype.CommandID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.byID[id]
	if !ok {
		return apperrors.New(apperrors.ErrCommandNotFound, "command_id", id.String())
	}
	el.Value.(*Command).approved = true
	return nil
}

// Get returns the command with the given id.
func (q *Queue) Get(id orchestype.CommandID) (*Command, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	el, ok := q.byID[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCommandNotFound, "command_id", id.String())
	}
	return el.Value.(*Command), nil
}

// Remove deletes a command from the queue. Returns false if it was not
// present.
func (q *Queue) Remove(id orchestype.CommandID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.byID[id]
	if !ok {
		return false
	}
	q.order.Remove(el)
	delete(q.byID, id)
	return true
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.order.Len()
}

// Contains reports whether id is currently queued.
func (q *Queue) Contains(id orchestype.CommandID) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.byID[id]
	return ok
}

// IDs returns every queued command id as a set, for use by callers building
// a "queued ∪ completed" dependency-validity check.
func (q *Queue) IDs() map[orchestype.CommandID]struct{} {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make(map[orchestype.CommandID]struct{}, len(q.byID))
	for id := range q.byID {
		out[id] = struct{}{}
	}
	return out
}

// Ready returns the commands that are approved, whose dependencies are all
// in completed, and whose id is not in assigned — in FIFO order (ties
// broken by ascending id, which is automatic since ids are allocated in
// enqueue order).
func (q *Queue) Ready(completed map[orchestype.CommandID]struct{}, assigned map[orchestype.CommandID]struct{}) []*Command {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*Command, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		cmd := el.Value.(*Command)
		if !cmd.approved {
			continue
		}
		if _, isAssigned := assigned[cmd.id]; isAssigned {
			continue
		}
		if !cmd.dependenciesSatisfied(completed) {
			continue
		}
		out = append(out, cmd)
	}
	return out
}
