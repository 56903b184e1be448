//go:build !windows

package daemon

import "syscall"

// alive reports whether pid names a live process. Signal 0 checks
// existence without delivering anything.
func alive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}
