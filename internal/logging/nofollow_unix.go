//go:build !windows

package logging

import "golang.org/x/sys/unix"

const osNoFollow = unix.O_NOFOLLOW
