package execution

import (
	"errors"
	"testing"
	"time"

	"github.com/kandev/orchestrator/internal/common/apperrors"
)

func TestStartRespectsMaxExecutions(t *testing.T) {
	tr := NewTracker(1)
	if !tr.CanStart() {
		t.Fatal("expected capacity for first execution")
	}
	exec, err := tr.Start(1, 1, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tr.CanStart() {
		t.Fatal("expected no capacity after reaching cap")
	}
	if _, err := tr.Start(2, 2, 2); !errors.Is(err, apperrors.ErrMaxExecutions) {
		t.Fatalf("expected ErrMaxExecutions, got %v", err)
	}
	_ = exec
}

func TestSucceedTransitionAndFreesCapacity(t *testing.T) {
	tr := NewTracker(1)
	exec, _ := tr.Start(1, 1, 1)

	if err := tr.Succeed(exec.ID(), 0); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	got, _ := tr.Get(exec.ID())
	if got.State() != StateSucceeded {
		t.Fatalf("expected Succeeded, got %s", got.State())
	}
	code, ok := got.ExitCode()
	if !ok || code != 0 {
		t.Fatalf("expected exit code 0, got %d (ok=%v)", code, ok)
	}
	if !tr.CanStart() {
		t.Fatal("expected capacity freed after Succeed")
	}
}

func TestFinishOnlyLegalWhileRunning(t *testing.T) {
	tr := NewTracker(5)
	exec, _ := tr.Start(1, 1, 1)
	if err := tr.Succeed(exec.ID(), 0); err != nil {
		t.Fatalf("Succeed: %v", err)
	}
	if err := tr.Fail(exec.ID(), "too late"); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double-finish, got %v", err)
	}
}

func TestAppendStdoutIgnoredWhenNotRunning(t *testing.T) {
	tr := NewTracker(5)
	exec, _ := tr.Start(1, 1, 1)
	tr.AppendStdout(exec.ID(), []byte("hi\n"))
	_ = tr.Succeed(exec.ID(), 0)
	tr.AppendStdout(exec.ID(), []byte("ignored"))

	got, _ := tr.Get(exec.ID())
	if string(got.Stdout()) != "hi\n" {
		t.Fatalf("expected stdout %q, got %q", "hi\n", got.Stdout())
	}
}

func TestCleanupRemovesOldTerminalExecutions(t *testing.T) {
	tr := NewTracker(5)
	exec, _ := tr.Start(1, 1, 1)
	_ = tr.Succeed(exec.ID(), 0)

	if n := tr.Cleanup(time.Hour); n != 0 {
		t.Fatalf("expected nothing cleaned up yet, got %d", n)
	}
	if n := tr.Cleanup(-time.Second); n != 1 {
		t.Fatalf("expected 1 cleaned up, got %d", n)
	}
	if _, err := tr.Get(exec.ID()); err == nil {
		t.Fatal("expected execution removed after cleanup")
	}
}

func TestFindByAgent(t *testing.T) {
	tr := NewTracker(5)
	exec, _ := tr.Start(42, 1, 1)

	found, ok := tr.FindByAgent(42)
	if !ok || found.ID() != exec.ID() {
		t.Fatalf("expected to find execution for agent 42, got %v (ok=%v)", found, ok)
	}
	if _, ok := tr.FindByAgent(99); ok {
		t.Fatal("expected no execution for unrelated agent")
	}
}
