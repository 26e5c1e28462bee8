package privilege

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct {
	fromUID int
	toUID   int
	success bool
	reason  string
	calls   int
}

func (r *recordingAuditor) LogPrivilegeDrop(_ context.Context, fromUID, toUID int, success bool, reason string) {
	r.fromUID = fromUID
	r.toUID = toUID
	r.success = success
	r.reason = reason
	r.calls++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDropNoopWhenNotRoot(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root")
	}

	auditor := &recordingAuditor{}
	d := NewDropper(discardLogger(), auditor)

	err := d.Drop(1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, auditor.calls)
	assert.True(t, auditor.success)
	assert.Equal(t, "not_root_noop", auditor.reason)
}

func TestDropRejectsInvalidTargetAsRoot(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root")
	}

	auditor := &recordingAuditor{}
	d := NewDropper(discardLogger(), auditor)

	err := d.Drop(0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDropFailed)
	assert.False(t, auditor.success)
}

func TestDropNilAuditor(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root")
	}

	d := NewDropper(discardLogger(), nil)
	require.NoError(t, d.Drop(1000, 1000))
}
