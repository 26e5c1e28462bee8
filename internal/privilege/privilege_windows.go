//go:build windows

package privilege

import "errors"

var errUnsupported = errors.New("privilege drop is not supported on this platform")

func getuid() int { return -1 }
func getgid() int { return -1 }

func dropIdentity(_, _ int) error { return errUnsupported }
