//go:build !unix

package launch

import (
	"errors"

	"github.com/kestrelscan/kestrel/internal/core/ports"
)

func renice(int) error {
	return errors.New("renice is not supported on this platform")
}

// UnixDropper has nothing to drop on platforms without unix privileges.
type UnixDropper struct{}

func (UnixDropper) Drop(string) (ports.DropResult, error) {
	return ports.DropNotPrivileged, nil
}
