package execution

import (
	"sync"
	"time"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// Tracker maintains the map of all executions and a soft cap on concurrent
// Running executions using the same map-plus-mutex active-execution
// tracking as the backend's executor.Executor.
type Tracker struct {
	mu            sync.RWMutex
	executions    map[orchestype.ExecutionID]*Execution
	runningCount  int
	idCounter     orchestype.Counter
	maxExecutions int
}

// NewTracker creates a tracker with the given soft concurrency cap.
func NewTracker(maxExecutions int) *Tracker {
	return &Tracker{
		executions:    make(map[orchestype.ExecutionID]*Execution),
		maxExecutions: maxExecutions,
	}
}

// CanStart reports whether another execution may begin without exceeding
// the soft cap.
func (t *Tracker) CanStart() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maxExecutions <= 0 || t.runningCount < t.maxExecutions
}

// Start records a new Running execution. Fails with ErrMaxExecutions if the
// cap has been reached.
func (t *Tracker) Start(agentID orchestype.AgentID, commandID orchestype.CommandID, terminalID orchestype.TerminalSlotID) (*Execution, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxExecutions > 0 && t.runningCount >= t.maxExecutions {
		return nil, apperrors.New(apperrors.ErrMaxExecutions)
	}

	id := orchestype.ExecutionID(t.idCounter.Next())
	exec := &Execution{
		id:         id,
		agentID:    agentID,
		commandID:  commandID,
		terminalID: terminalID,
		state:      StateRunning,
		startedAt:  time.Now(),
	}
	t.executions[id] = exec
	t.runningCount++
	return exec, nil
}

// Get returns the execution with the given id.
func (t *Tracker) Get(id orchestype.ExecutionID) (*Execution, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	exec, ok := t.executions[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrExecutionNotFound, "execution_id", id.String())
	}
	return exec, nil
}

func (t *Tracker) finish(id orchestype.ExecutionID, newState State, exitCode *int, errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	exec, ok := t.executions[id]
	if !ok {
		return apperrors.New(apperrors.ErrExecutionNotFound, "execution_id", id.String())
	}
	if exec.state != StateRunning {
		return apperrors.New(apperrors.ErrInvalidTransition,
			"execution_id", id.String(), "state", string(exec.state))
	}

	now := time.Now()
	exec.state = newState
	exec.finishedAt = &now
	exec.exitCode = exitCode
	exec.errMsg = errMsg
	t.runningCount--
	return nil
}

// Succeed transitions a Running execution to Succeeded, recording its exit
// code. Legal only while Running.
func (t *Tracker) Succeed(id orchestype.ExecutionID, exitCode int) error {
	return t.finish(id, StateSucceeded, &exitCode, "")
}

// Fail transitions a Running execution to Failed with an error message but
// no exit code. Legal only while Running.
func (t *Tracker) Fail(id orchestype.ExecutionID, msg string) error {
	return t.finish(id, StateFailed, nil, msg)
}

// FailWithExitCode transitions a Running execution to Failed, recording
// both an exit code and an error message. Legal only while Running.
func (t *Tracker) FailWithExitCode(id orchestype.ExecutionID, code int, msg string) error {
	return t.finish(id, StateFailed, &code, msg)
}

// Cancel transitions a Running execution to Cancelled. Legal only while
// Running.
func (t *Tracker) Cancel(id orchestype.ExecutionID) error {
	return t.finish(id, StateCancelled, nil, "")
}

// AppendStdout appends bytes to an execution's stdout buffer. It is a
// no-op if the execution is not Running or does not exist.
func (t *Tracker) AppendStdout(id orchestype.ExecutionID, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if exec, ok := t.executions[id]; ok && exec.state == StateRunning {
		exec.stdout = append(exec.stdout, data...)
	}
}

// AppendStderr appends bytes to an execution's stderr buffer, with the same
// ignore-if-not-running semantics as AppendStdout.
func (t *Tracker) AppendStderr(id orchestype.ExecutionID, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if exec, ok := t.executions[id]; ok && exec.state == StateRunning {
		exec.stderr = append(exec.stderr, data...)
	}
}

// FindByAgent returns the execution currently (or most recently) owned by
// agentID, if any is tracked. When an agent has more than one historical
// execution only the most recently started one is returned.
func (t *Tracker) FindByAgent(agentID orchestype.AgentID) (*Execution, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var latest *Execution
	for _, exec := range t.executions {
		if exec.agentID != agentID {
			continue
		}
		if latest == nil || exec.startedAt.After(latest.startedAt) {
			latest = exec
		}
	}
	return latest, latest != nil
}

// Running returns every execution currently in the Running state.
func (t *Tracker) Running() []*Execution {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Execution, 0, t.runningCount)
	for _, exec := range t.executions {
		if exec.state == StateRunning {
			out = append(out, exec)
		}
	}
	return out
}

// RunningCount returns the number of executions currently Running.
func (t *Tracker) RunningCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runningCount
}

// Cleanup removes terminal executions whose FinishedAt is older than
// maxAge, returning the number removed.
func (t *Tracker) Cleanup(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, exec := range t.executions {
		if exec.state == StateRunning {
			continue
		}
		if exec.finishedAt != nil && exec.finishedAt.Before(cutoff) {
			delete(t.executions, id)
			removed++
		}
	}
	return removed
}
