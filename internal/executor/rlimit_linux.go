//go:build linux

package executor

import (
	"time"

	"golang.org/x/sys/unix"
)

// cpuHardExtra widens the RLIMIT_CPU hard cap beyond the soft cap so the
// child receives SIGXCPU before SIGKILL.
const cpuHardExtra = 5

// applyLimits sets RLIMIT_AS and RLIMIT_CPU on a running child. These are
// the child-side half of the two-layer timeout: even if the parent's wait
// never fires, the kernel stops a memory-runaway or spinning child.
func applyLimits(pid int, limits Limits) error {
	if limits.MaxMemoryBytes > 0 {
		rl := unix.Rlimit{Cur: limits.MaxMemoryBytes, Max: limits.MaxMemoryBytes}
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &rl, nil); err != nil {
			return err
		}
	}

	if limits.Timeout > 0 {
		soft := uint64(limits.Timeout/time.Second) + uint64(limits.CPUGrace/time.Second)
		if soft == 0 {
			soft = 1
		}
		rl := unix.Rlimit{Cur: soft, Max: soft + cpuHardExtra}
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &rl, nil); err != nil {
			return err
		}
	}

	return nil
}
