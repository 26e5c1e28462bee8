//go:build !windows

package privilege

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func getuid() int { return unix.Getuid() }
func getgid() int { return unix.Getgid() }

// dropIdentity clears supplementary groups and changes the group and user
// IDs permanently. Setgid and Setuid affect real, effective and saved IDs
// across every thread of the process.
func dropIdentity(uid, gid int) error {
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
