//go:build linux

package proctitle

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The kernel caps comm names at 15 bytes.
const linuxProcNameMax = 15

// Set applies a short process title via PR_SET_NAME and mirrors it into
// os.Args[0]. Longer titles are truncated to the kernel limit; an empty
// title is a no-op.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	if len(os.Args) > 0 {
		os.Args[0] = title
	}

	b := make([]byte, linuxProcNameMax+1)
	copy(b, title)

	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&b[0])), 0, 0, 0)
}
