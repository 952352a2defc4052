package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/orchestype"
)

// fakeDomain is an in-memory domain.Domain for the orchestrator's core
// invariant tests, standing in for a real PTY or container backend: the
// orchestrator core only ever consumes Domain/Pane capabilities, never
// implements them.
type fakeDomain struct {
	id orchestype.DomainID

	mu        sync.Mutex
	panes     map[orchestype.PaneID]*fakePane
	idCounter orchestype.Counter
	spawnErr  error
}

func newFakeDomain(id orchestype.DomainID) *fakeDomain {
	return &fakeDomain{id: id, panes: make(map[orchestype.PaneID]*fakePane)}
}

func (d *fakeDomain) DomainID() orchestype.DomainID { return d.id }

func (d *fakeDomain) SpawnPane(_ context.Context, cols, rows int, _ domain.PaneConfig) (domain.Pane, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.spawnErr != nil {
		return nil, d.spawnErr
	}

	id := orchestype.PaneID(d.idCounter.Next())
	p := &fakePane{id: id, domainID: d.id, cols: cols, rows: rows, alive: true}
	d.panes[id] = p
	return p, nil
}

func (d *fakeDomain) ListPanes() []domain.Pane {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]domain.Pane, 0, len(d.panes))
	for _, p := range d.panes {
		out = append(out, p)
	}
	return out
}

func (d *fakeDomain) RemovePane(id orchestype.PaneID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.panes, id)
	return nil
}

// failNextSpawn makes the next SpawnPane call (and every subsequent one)
// fail with err, used to exercise the begin_execution partial-failure
// rollback path.
func (d *fakeDomain) failNextSpawn(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spawnErr = err
}

// fakePane is a controllable in-memory domain.Pane: tests flip alive/exit
// directly instead of waiting on a real process.
type fakePane struct {
	id       orchestype.PaneID
	domainID orchestype.DomainID

	mu    sync.Mutex
	cols  int
	rows  int
	out   []byte
	in    []byte
	alive bool
	exit  *int
}

func (p *fakePane) PaneID() orchestype.PaneID     { return p.id }
func (p *fakePane) DomainID() orchestype.DomainID { return p.domainID }

func (p *fakePane) Size() (cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

func (p *fakePane) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.rows = cols, rows
	return nil
}

func (p *fakePane) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in = append(p.in, data...)
	return len(data), nil
}

// Read drains the queued output buffer a test pushed via pushOutput. 0
// bytes with a nil error means no data is available right now.
func (p *fakePane) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.out) == 0 {
		return 0, nil
	}
	n := copy(buf, p.out)
	p.out = p.out[n:]
	return n, nil
}

func (p *fakePane) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *fakePane) ExitStatus() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exit == nil {
		return 0, false
	}
	return *p.exit, true
}

func (p *fakePane) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	return nil
}

// pushOutput queues bytes for the next Read call(s).
func (p *fakePane) pushOutput(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, data...)
}

// exitWith marks the pane dead with the given exit code, as a real process
// backend would once its command finishes.
func (p *fakePane) exitWith(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	p.exit = &code
}

var errFakeSpawnFailed = errors.New("fake domain: spawn refused")
