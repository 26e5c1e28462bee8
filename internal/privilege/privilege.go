// Package privilege performs the one-way drop from root to an unprivileged
// identity at startup. Unlike temporary elevation schemes, the drop here is
// permanent: real, effective and saved IDs all change, so a compromised
// process cannot climb back.
package privilege

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Sentinel errors for drop failures.
var (
	// ErrDropFailed is returned when any stage of the drop fails.
	ErrDropFailed = errors.New("privilege drop failed")
	// ErrDropNotVerified is returned when IDs after the drop do not match
	// the requested target.
	ErrDropNotVerified = errors.New("privilege drop not verified")
)

// Auditor receives one record per drop attempt.
type Auditor interface {
	LogPrivilegeDrop(ctx context.Context, fromUID, toUID int, success bool, reason string)
}

// Dropper performs a permanent privilege drop.
type Dropper struct {
	logger  *slog.Logger
	auditor Auditor
}

// NewDropper creates a Dropper. auditor may be nil.
func NewDropper(logger *slog.Logger, auditor Auditor) *Dropper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dropper{logger: logger, auditor: auditor}
}

// Drop changes identity to uid/gid if the process is running as root.
// The order is fixed: supplementary groups first, then GID, then UID,
// since the UID change removes the right to do the other two. After the
// calls the resulting IDs are read back and compared to the target. When
// not running as root the drop is a recorded no-op.
func (d *Dropper) Drop(uid, gid int) error {
	currentUID := getuid()
	if currentUID != 0 {
		d.logger.Debug("not running as root, skipping privilege drop", "uid", currentUID)
		d.record(currentUID, uid, true, "not_root_noop")
		return nil
	}

	if uid <= 0 || gid <= 0 {
		d.record(currentUID, uid, false, "invalid_target")
		return fmt.Errorf("%w: refusing target uid=%d gid=%d", ErrDropFailed, uid, gid)
	}

	if err := dropIdentity(uid, gid); err != nil {
		d.record(currentUID, uid, false, err.Error())
		return fmt.Errorf("%w: %v", ErrDropFailed, err)
	}

	if getuid() != uid || getgid() != gid {
		d.record(currentUID, uid, false, "verification_mismatch")
		return fmt.Errorf("%w: uid=%d gid=%d after drop", ErrDropNotVerified, getuid(), getgid())
	}

	d.logger.Info("privileges dropped", "uid", uid, "gid", gid)
	d.record(currentUID, uid, true, "dropped")
	return nil
}

func (d *Dropper) record(fromUID, toUID int, success bool, reason string) {
	if d.auditor != nil {
		d.auditor.LogPrivilegeDrop(context.Background(), fromUID, toUID, success, reason)
	}
}
