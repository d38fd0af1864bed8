//go:build linux

package launch

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setProcessTitle updates the kernel-visible process name for operational
// observability. PR_SET_NAME caps the name at 15 bytes, so long titles are
// truncated.
func setProcessTitle(title string) error {
	name := []byte(title)
	if len(name) > 15 {
		name = name[:15]
	}
	name = append(name, 0)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&name[0])), 0, 0, 0)
}
