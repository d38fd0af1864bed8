//go:build unix

package launch

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/kestrelscan/kestrel/internal/core/ports"
)

// DefaultUnprivilegedUser is who we become when no drop target is configured.
const DefaultUnprivilegedUser = "nobody"

// renice raises the process niceness by increment, lowering its scheduling
// priority.
func renice(increment int) error {
	current, err := unix.Getpriority(unix.PRIO_PROCESS, 0)
	if err != nil {
		return fmt.Errorf("get process priority: %w", err)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, current+increment); err != nil {
		return fmt.Errorf("set process priority: %w", err)
	}
	return nil
}

// UnixDropper reduces privileges with setgroups/setgid/setuid.
type UnixDropper struct{}

// Drop switches to the given user when running privileged. The group list is
// cleared first so supplementary root groups do not survive the drop.
func (UnixDropper) Drop(username string) (ports.DropResult, error) {
	if os.Geteuid() != 0 {
		return ports.DropNotPrivileged, nil
	}
	if username == "" {
		username = DefaultUnprivilegedUser
	}

	u, err := user.Lookup(username)
	if err != nil {
		return ports.DropFailed, fmt.Errorf("lookup user %q: %w", username, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return ports.DropFailed, fmt.Errorf("parse uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return ports.DropFailed, fmt.Errorf("parse gid %q: %w", u.Gid, err)
	}

	if err := unix.Setgroups([]int{gid}); err != nil {
		return ports.DropFailed, fmt.Errorf("setgroups: %w", err)
	}
	if err := unix.Setgid(gid); err != nil {
		return ports.DropFailed, fmt.Errorf("setgid %d: %w", gid, err)
	}
	if err := unix.Setuid(uid); err != nil {
		return ports.DropFailed, fmt.Errorf("setuid %d: %w", uid, err)
	}
	return ports.DropOK, nil
}
