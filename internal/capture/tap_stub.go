//go:build !linux && !darwin

package capture

import (
	"errors"
	"io"
	"os"
)

// errUnsupported disables the stream tap on platforms without descriptor
// redirection; the system log poller remains available.
var errUnsupported = errors.New("stdio redirection not supported on this platform")

type stubRedirector struct{}

func newOSRedirector() redirector { return stubRedirector{} }

func (stubRedirector) Install() (*os.File, io.Writer, error) {
	return nil, nil, errUnsupported
}

func (stubRedirector) Restore() error { return nil }
