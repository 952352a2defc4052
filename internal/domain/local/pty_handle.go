// Package local implements a Domain backed by real local PTY processes,
// the default domain used when the orchestrator is not configured against
// a container or remote backend.
package local

import "io"

// ptyHandle abstracts PTY operations across Unix and Windows: creack/pty on
// Unix wraps an *os.File, conpty on Windows wraps a pseudo-console.
type ptyHandle interface {
	io.ReadWriteCloser
	Resize(cols, rows int) error
}
