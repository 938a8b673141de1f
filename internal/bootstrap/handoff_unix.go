//go:build darwin || linux

package bootstrap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// execDelegate replaces the current process image with the delegate.
func execDelegate(argv0 string, argv []string, envv []string) error {
	return unix.Exec(argv0, argv, envv)
}

// setCredentials switches to the service account. Supplementary groups are
// reset first and the uid is dropped last, while we still may.
func setCredentials(uid, gid int) error {
	if err := unix.Setgroups([]int{gid}); err != nil {
		return fmt.Errorf("setgroups: %w", err)
	}
	if err := unix.Setgid(gid); err != nil {
		return fmt.Errorf("setgid: %w", err)
	}
	if err := unix.Setuid(uid); err != nil {
		return fmt.Errorf("setuid: %w", err)
	}
	return nil
}
