// Package termparser wraps github.com/tuzig/vt10x to fill the orchestrator's
// terminal_parser slot resource: it interprets raw pane bytes as terminal
// control sequences so callers can read back visible screen content, the
// same way the agentctl process.StatusTracker uses the library.
package termparser

import (
	"sync"

	"github.com/tuzig/vt10x"
)

// Parser feeds raw pane output through a vt10x terminal emulator.
type Parser struct {
	mu   sync.Mutex
	term vt10x.Terminal
	cols int
	rows int
}

// New creates a parser sized for the given terminal dimensions, matching
// the pane size a terminal slot allocates it for.
func New(cols, rows int) *Parser {
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	return &Parser{
		term: vt10x.New(vt10x.WithSize(cols, rows)),
		cols: cols,
		rows: rows,
	}
}

// Write feeds raw pane bytes into the terminal emulator.
func (p *Parser) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.term.Write(data)
}

// Resize updates the emulator's dimensions, called when a pane is resized.
func (p *Parser) Resize(cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.term.Resize(cols, rows)
	p.cols, p.rows = cols, rows
}

// Lines returns the current visible screen content, one string per row.
func (p *Parser) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	lines := make([]string, p.rows)
	for row := 0; row < p.rows; row++ {
		chars := make([]rune, p.cols)
		for col := 0; col < p.cols; col++ {
			g := p.term.Cell(col, row)
			if g.Char == 0 {
				chars[col] = ' '
			} else {
				chars[col] = g.Char
			}
		}
		lines[row] = string(chars)
	}
	return lines
}
