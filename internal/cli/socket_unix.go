//go:build unix

package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// newControlPair creates a connected socket pair: the write side is handed to
// the spawned execution process as its control socket, the read side stays
// with the caller to observe completion frames.
func newControlPair() (sock *os.File, reader io.ReadCloser, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("create control socket pair: %w", err)
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	return os.NewFile(uintptr(fds[1]), "ctrl-child"), os.NewFile(uintptr(fds[0]), "ctrl-parent"), nil
}
