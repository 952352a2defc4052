package local

import (
	"sync"

	"github.com/kandev/orchestrator/internal/orchestype"
)

const defaultOutputBufferBytes = 2 * 1024 * 1024

// pane is a PTY-backed domain.Pane. Output from the underlying process is
// drained continuously into a memory-bounded buffer by a background reader
// goroutine, so Read never blocks on the process itself: a 0-byte result
// means "nothing buffered right now", matching domain.Pane's contract.
type pane struct {
	id       orchestype.PaneID
	domainID orchestype.DomainID

	mu      sync.Mutex
	handle  ptyHandle
	cols    int
	rows    int
	out     []byte
	maxOut  int
	alive   bool
	exit    *int
	process interface{ Kill() error }
}

func newPane(id orchestype.PaneID, domainID orchestype.DomainID, handle ptyHandle, cols, rows int) *pane {
	return &pane{
		id:       id,
		domainID: domainID,
		handle:   handle,
		cols:     cols,
		rows:     rows,
		maxOut:   defaultOutputBufferBytes,
		alive:    true,
	}
}

func (p *pane) PaneID() orchestype.PaneID     { return p.id }
func (p *pane) DomainID() orchestype.DomainID { return p.domainID }

func (p *pane) Size() (cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

func (p *pane) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.handle.Resize(cols, rows); err != nil {
		return err
	}
	p.cols, p.rows = cols, rows
	return nil
}

func (p *pane) Write(data []byte) (int, error) {
	return p.handle.Write(data)
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
	p.mu.Lock()
	proc := p.process
	p.mu.Unlock()
	if proc == nil {
		return p.handle.Close()
	}
	return proc.Kill()
}

// appendOutput feeds newly read bytes into the bounded buffer, evicting the
// oldest bytes on overflow.
func (p *pane) appendOutput(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.out = append(p.out, data...)
	if over := len(p.out) - p.maxOut; over > 0 {
		p.out = p.out[over:]
	}
}

// markExited records the process's terminal state. Idempotent.
func (p *pane) markExited(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive {
		return
	}
	p.alive = false
	p.exit = &code
}
