//go:build !linux

package executor

// applyLimits is a no-op where prlimit is unavailable; the parent-side
// wall-clock timeout remains in force.
func applyLimits(_ int, _ Limits) error {
	return nil
}
