//go:build linux || darwin

package capture

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// osRedirector swaps the real stdout/stderr file descriptors for the write
// end of a pipe. The originals are duplicated first so they can be
// restored exactly once and mirrored to in the meantime.
type osRedirector struct {
	mu        sync.Mutex
	savedOut  int
	savedErr  int
	installed bool
}

func newOSRedirector() redirector {
	return &osRedirector{savedOut: -1, savedErr: -1}
}

func (o *osRedirector) Install() (*os.File, io.Writer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.installed {
		return nil, nil, ErrTapInstalled
	}

	savedOut, err := unix.Dup(int(os.Stdout.Fd()))
	if err != nil {
		return nil, nil, fmt.Errorf("dup stdout: %w", err)
	}
	savedErr, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		_ = unix.Close(savedOut)
		return nil, nil, fmt.Errorf("dup stderr: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		_ = unix.Close(savedOut)
		_ = unix.Close(savedErr)
		return nil, nil, fmt.Errorf("create pipe: %w", err)
	}

	if err := dupTo(int(pw.Fd()), int(os.Stdout.Fd())); err != nil {
		_ = unix.Close(savedOut)
		_ = unix.Close(savedErr)
		_ = pr.Close()
		_ = pw.Close()
		return nil, nil, fmt.Errorf("redirect stdout: %w", err)
	}
	if err := dupTo(int(pw.Fd()), int(os.Stderr.Fd())); err != nil {
		// Undo the stdout redirect before giving up.
		_ = dupTo(savedOut, int(os.Stdout.Fd()))
		_ = unix.Close(savedOut)
		_ = unix.Close(savedErr)
		_ = pr.Close()
		_ = pw.Close()
		return nil, nil, fmt.Errorf("redirect stderr: %w", err)
	}

	// Descriptors 1 and 2 now hold the pipe; this extra write end must go
	// so that restoring them later produces EOF on the read end.
	_ = pw.Close()

	o.savedOut = savedOut
	o.savedErr = savedErr
	o.installed = true

	return pr, fdWriter{fd: savedOut}, nil
}

// fdWriter writes straight to a raw descriptor. A plain struct rather
// than os.NewFile so no finalizer ever closes the saved descriptor
// behind Restore's back.
type fdWriter struct {
	fd int
}

func (w fdWriter) Write(p []byte) (int, error) {
	return unix.Write(w.fd, p)
}

func (o *osRedirector) Restore() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.installed {
		return nil
	}
	o.installed = false

	var firstErr error
	if err := dupTo(o.savedOut, int(os.Stdout.Fd())); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("restore stdout: %w", err)
	}
	if err := dupTo(o.savedErr, int(os.Stderr.Fd())); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("restore stderr: %w", err)
	}
	// 1 and 2 point at the originals again; the duplicates (one of which
	// backs the mirror writer) are no longer needed.
	_ = unix.Close(o.savedOut)
	_ = unix.Close(o.savedErr)
	o.savedOut, o.savedErr = -1, -1
	return firstErr
}
