package docker

import (
	"sync"

	"github.com/docker/docker/api/types"

	"github.com/kandev/orchestrator/internal/orchestype"
)

const defaultOutputBufferBytes = 2 * 1024 * 1024

// pane is an exec-session-backed domain.Pane. The exec session runs with a
// TTY, so stdout and stderr already arrive merged on a single stream — no
// stream-multiplexing header to strip, unlike a non-TTY attach.
type pane struct {
	id       orchestype.PaneID
	domainID orchestype.DomainID
	execID   string

	mu         sync.Mutex
	hijack     types.HijackedResponse
	cols       int
	rows       int
	out        []byte
	maxOut     int
	alive      bool
	exit       *int
	resizeFunc func(cols, rows int) error
}

func newPane(id orchestype.PaneID, domainID orchestype.DomainID, execID string, hijack types.HijackedResponse, cols, rows int, resizeFunc func(cols, rows int) error) *pane {
	return &pane{
		id:         id,
		domainID:   domainID,
		execID:     execID,
		hijack:     hijack,
		cols:       cols,
		rows:       rows,
		maxOut:     defaultOutputBufferBytes,
		alive:      true,
		resizeFunc: resizeFunc,
	}
}

func (p *pane) PaneID() orchestype.PaneID     { return p.id }
func (p *pane) DomainID() orchestype.DomainID { return p.domainID }

func (p *pane) Size() (cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

// Resize changes the TTY size of the exec session.
func (p *pane) Resize(cols, rows int) error {
	if err := p.resizeFunc(cols, rows); err != nil {
		return err
	}
	p.setSize(cols, rows)
	return nil
}

func (p *pane) Write(data []byte) (int, error) {
	return p.hijack.Conn.Write(data)
}

// Read drains from the internal buffer. 0 bytes with a nil error means no
// data is currently available.
func (p *pane) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.out) == 0 {
		return 0, nil
	}
	n := copy(buf, p.out)
	p.out = p.out[n:]
	return n, nil
}

func (p *pane) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *pane) ExitStatus() (code int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exit == nil {
		return 0, false
	}
	return *p.exit, true
}

func (p *pane) Kill() error {
	p.hijack.Close()
	return nil
}

func (p *pane) appendOutput(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.out = append(p.out, data...)
	if over := len(p.out) - p.maxOut; over > 0 {
		p.out = p.out[over:]
	}
}

func (p *pane) setSize(cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.rows = cols, rows
}

func (p *pane) markExited(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive {
		return
	}
	p.alive = false
	p.exit = &code
}

// paneSet is the domain's bookkeeping of panes it currently owns.
type paneSet struct {
	mu        sync.Mutex
	panes     map[orchestype.PaneID]*pane
	idCounter orchestype.Counter
}

func newPaneSet() *paneSet {
	return &paneSet{panes: make(map[orchestype.PaneID]*pane)}
}

func (s *paneSet) add(p *pane) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panes[p.id] = p
}

func (s *paneSet) remove(id orchestype.PaneID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.panes, id)
}

func (s *paneSet) list() []*pane {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pane, 0, len(s.panes))
	for _, p := range s.panes {
		out = append(out, p)
	}
	return out
}
