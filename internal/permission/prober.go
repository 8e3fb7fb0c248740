package permission

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Prober is the narrow interface to the OS permission machinery. The consent
// dialog itself belongs to the host shell; scout only checks and triggers.
type Prober interface {
	// Probe reports whether the blanket grant is currently in effect.
	Probe(ctx context.Context) (bool, error)
	// RequestAccess triggers the OS consent flow and returns immediately.
	RequestAccess(ctx context.Context) error
}

// accessProber infers the blanket grant by attempting read access against
// locations the OS shields until the user approves all-paths access.
type accessProber struct {
	paths []string
}

// NewAccessProber builds the default prober over the given probe locations.
// With no locations, well-known shielded user directories are probed.
func NewAccessProber(paths []string) Prober {
	if len(paths) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			paths = []string{
				filepath.Join(home, "Library", "Mail"),
				filepath.Join(home, "Library", "Safari"),
			}
		}
	}
	return &accessProber{paths: paths}
}

func (p *accessProber) Probe(_ context.Context) (bool, error) {
	probed := false
	for _, path := range p.paths {
		err := unix.Access(path, unix.R_OK)
		switch {
		case err == nil:
			probed = true
		case errors.Is(err, unix.ENOENT):
			// Location absent on this host; not evidence either way.
		case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
			return false, nil
		default:
			return false, &fs.PathError{Op: "access", Path: path, Err: err}
		}
	}
	return probed, nil
}

// RequestAccess is a no-op for the access prober: the host application shell
// presents the consent dialog; scout detects the outcome by polling Probe.
func (p *accessProber) RequestAccess(context.Context) error {
	return nil
}
