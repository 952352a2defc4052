package local

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/common/logger"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// Domain spawns panes as real local PTY processes. It is the default
// domain implementation: no container runtime or remote host required.
type Domain struct {
	id     orchestype.DomainID
	logger *logger.Logger

	mu        sync.Mutex
	panes     map[orchestype.PaneID]*pane
	idCounter orchestype.Counter
}

// New creates a local domain with the given id.
func New(id orchestype.DomainID, log *logger.Logger) *Domain {
	if log == nil {
		log = logger.Default()
	}
	return &Domain{
		id:     id,
		logger: log,
		panes:  make(map[orchestype.PaneID]*pane),
	}
}

func (d *Domain) DomainID() orchestype.DomainID { return d.id }

// SpawnPane starts cfg["command"] through the system shell, attached to a new
// PTY of the given size, in cfg["dir"] if set. If cfg["command"] is unset the
// pane runs "exit 0" and exits at once with status 0; no interactive shell
// is started.
func (d *Domain) SpawnPane(ctx context.Context, cols, rows int, cfg domain.PaneConfig) (domain.Pane, error) {
	command := cfg["command"]
	var prog string
	var args []string
	if command != "" {
		prog, args = shellExecArgs(command)
	} else {
		prog, args = shellExecArgs("exit 0")
	}

	cmd := exec.CommandContext(ctx, prog, args...)
	if dir, ok := cfg["dir"]; ok && dir != "" {
		cmd.Dir = dir
	}

	handle, err := startPTY(cmd, cols, rows)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, fmt.Errorf("start pty: %w", err))
	}

	d.mu.Lock()
	id := orchestype.PaneID(d.idCounter.Next())
	p := newPane(id, d.id, handle, cols, rows)
	p.process = cmd.Process
	d.panes[id] = p
	d.mu.Unlock()

	go d.readLoop(p)
	go d.waitLoop(cmd, p)

	return p, nil
}

// readLoop continuously drains the PTY into the pane's bounded buffer until
// the handle closes (process exit or explicit Kill).
func (d *Domain) readLoop(p *pane) {
	buf := make([]byte, 32*1024)
	for {
		n, err := p.handle.Read(buf)
		if n > 0 {
			p.appendOutput(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// waitLoop reaps the process and records its exit status once it finishes.
func (d *Domain) waitLoop(cmd *exec.Cmd, p *pane) {
	err := cmd.Wait()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = 1
		}
	}
	p.markExited(code)
	_ = p.handle.Close()
}

// ListPanes returns every pane this domain currently owns.
func (d *Domain) ListPanes() []domain.Pane {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]domain.Pane, 0, len(d.panes))
	for _, p := range d.panes {
		out = append(out, p)
	}
	return out
}

// RemovePane drops the domain's reference to a pane. It does not kill the
// process; callers that want that should call Pane.Kill first.
func (d *Domain) RemovePane(id orchestype.PaneID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.panes, id)
	return nil
}
