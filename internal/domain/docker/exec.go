package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"

	"github.com/kandev/orchestrator/internal/common/apperrors"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/orchestype"
)

const execInspectPollInterval = 200 * time.Millisecond

// SpawnPane creates a TTY exec session inside the target container running
// cfg["command"] (defaulting to an interactive shell), sized cols x rows.
func (d *Domain) SpawnPane(ctx context.Context, cols, rows int, cfg domain.PaneConfig) (domain.Pane, error) {
	running, err := d.containerRunning(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, err)
	}
	if !running {
		return nil, apperrors.New(apperrors.ErrSpawnFailed, "reason", "target container not running")
	}

	cmd := []string{"/bin/sh"}
	if command := cfg["command"]; command != "" {
		cmd = []string{"/bin/sh", "-lc", command}
	}

	execCfg := container.ExecOptions{
		Cmd:          cmd,
		Tty:          true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   cfg["dir"],
		ConsoleSize:  &[2]uint{uint(rows), uint(cols)},
	}

	created, err := d.cli.ContainerExecCreate(ctx, d.containerID, execCfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, fmt.Errorf("exec create: %w", err))
	}

	hijack, err := d.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{Tty: true})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, fmt.Errorf("exec attach: %w", err))
	}

	id := orchestype.PaneID(d.panes.idCounter.Next())
	resizeFunc := func(cols, rows int) error {
		return d.cli.ContainerExecResize(context.Background(), created.ID, container.ResizeOptions{
			Height: uint(rows), Width: uint(cols),
		})
	}
	p := newPane(id, d.id, created.ID, hijack, cols, rows, resizeFunc)
	d.panes.add(p)

	go d.readLoop(p)
	go d.watchExit(p)

	return p, nil
}

// readLoop continuously drains the exec session's TTY stream into the
// pane's bounded buffer until the hijacked connection closes.
func (d *Domain) readLoop(p *pane) {
	buf := make([]byte, 32*1024)
	for {
		n, err := p.hijack.Reader.Read(buf)
		if n > 0 {
			p.appendOutput(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// watchExit polls ContainerExecInspect on a ticker until the exec process
// finishes and records its exit code.
func (d *Domain) watchExit(p *pane) {
	ctx := context.Background()
	ticker := time.NewTicker(execInspectPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		inspect, err := d.cli.ContainerExecInspect(ctx, p.execID)
		if err != nil {
			p.markExited(-1)
			return
		}
		if !inspect.Running {
			p.markExited(inspect.ExitCode)
			p.hijack.Close()
			return
		}
	}
}

// ListPanes returns every pane this domain currently owns.
func (d *Domain) ListPanes() []domain.Pane {
	panes := d.panes.list()
	out := make([]domain.Pane, 0, len(panes))
	for _, p := range panes {
		out = append(out, p)
	}
	return out
}

// RemovePane drops the domain's reference to a pane. It does not terminate
// the exec session; callers that want that should call Pane.Kill first.
func (d *Domain) RemovePane(id orchestype.PaneID) error {
	d.panes.remove(id)
	return nil
}
