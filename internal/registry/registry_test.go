package registry

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/audit"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(audit.NewLogger(logger), logger)
}

func TestRegisterAndGet(t *testing.T) {
	r := newTestRegistry(t)

	tool := Tool{ID: "wifi_scan", Name: "WiFi Scanner", Category: CategoryWiFi}
	require.NoError(t, r.Register(tool))

	got, err := r.Get("wifi_scan")
	require.NoError(t, err)
	assert.Equal(t, tool, got)
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(Tool{Name: "anonymous"})
	assert.ErrorIs(t, err, ErrInvalidTool)

	require.NoError(t, r.Register(Tool{ID: "x", Name: "X"}))
	err = r.Register(Tool{ID: "x", Name: "X again"})
	assert.ErrorIs(t, err, ErrToolExists)
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get("ghost")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestByCategoryAndCategories(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(Tool{ID: "b", Name: "B", Category: CategoryWiFi}))
	require.NoError(t, r.Register(Tool{ID: "a", Name: "A", Category: CategoryWiFi}))
	require.NoError(t, r.Register(Tool{ID: "c", Name: "C", Category: CategorySystem}))

	wifi := r.ByCategory(CategoryWiFi)
	require.Len(t, wifi, 2)
	assert.Equal(t, "a", wifi[0].ID, "sorted by ID")

	assert.Equal(t, []Category{CategorySystem, CategoryWiFi}, r.Categories())
}

func TestEnableDisable(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(Tool{ID: "x", Name: "X"}))

	assert.True(t, r.Enabled("x"), "tools start enabled")
	require.NoError(t, r.SetEnabled("x", false))
	assert.False(t, r.Enabled("x"))
	require.NoError(t, r.SetEnabled("x", true))
	assert.True(t, r.Enabled("x"))

	assert.False(t, r.Enabled("ghost"))
	assert.ErrorIs(t, r.SetEnabled("ghost", true), ErrToolNotFound)
}

func TestMissingBinaries(t *testing.T) {
	r := newTestRegistry(t)
	r.lookPath = func(name string) (string, error) {
		if name == "nmap" {
			return "/usr/bin/nmap", nil
		}
		return "", errors.New("not found")
	}
	require.NoError(t, r.Register(Tool{ID: "x", Name: "X", Binaries: []string{"nmap", "arpspoof"}}))

	missing, err := r.MissingBinaries("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"arpspoof"}, missing)
	assert.False(t, r.Available("x"))
}

func TestAvailable(t *testing.T) {
	r := newTestRegistry(t)
	r.lookPath = func(string) (string, error) { return "/usr/bin/tool", nil }
	require.NoError(t, r.Register(Tool{ID: "x", Name: "X", Binaries: []string{"nmap"}}))

	assert.True(t, r.Available("x"))

	require.NoError(t, r.SetEnabled("x", false))
	assert.False(t, r.Available("x"), "disabled tools are unavailable even when installed")
}

func TestRecordExecution(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(Tool{ID: "x", Name: "X"}))

	_, ok := r.LastExecution("x")
	assert.False(t, ok)

	require.NoError(t, r.RecordExecution("x", "success"))
	record, ok := r.LastExecution("x")
	require.True(t, ok)
	assert.Equal(t, "success", record.Status)
	assert.False(t, record.At.IsZero())

	assert.ErrorIs(t, r.RecordExecution("ghost", "success"), ErrToolNotFound)
}

func TestDefaultToolsRegister(t *testing.T) {
	r := newTestRegistry(t)
	for _, tool := range DefaultTools() {
		require.NoError(t, r.Register(tool))
	}
	assert.Len(t, r.All(), 7)
	assert.NotEmpty(t, r.ByCategory(CategoryWiFi))
}
