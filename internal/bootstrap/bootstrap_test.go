package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/bootstrap"
)

func writeConfig(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deckd.toml")
	content := "root_dir = \"" + root + "\"\nlog_level = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewAssemblesContainer(t *testing.T) {
	root := t.TempDir()
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:        writeConfig(t, root),
		SkipPrivilegeDrop: true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	assert.NotEmpty(t, app.RunID)
	assert.NotNil(t, app.Gate)
	assert.NotNil(t, app.Scanner)
	assert.NotNil(t, app.Registry)
	assert.NotEmpty(t, app.Registry.All())

	// The logging setup must have created the log directory under the root.
	_, err = os.Stat(filepath.Join(root, "logs"))
	assert.NoError(t, err)
}

func TestNewMissingConfigUsesDefaultsUnderTempRoot(t *testing.T) {
	// Point the default root somewhere writable by overriding HOME.
	t.Setenv("HOME", t.TempDir())

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:        filepath.Join(t.TempDir(), "absent.toml"),
		SkipPrivilegeDrop: true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	assert.Equal(t, 2, app.Config.Execution.WorkerCount)
}

func TestRunBlockingExecutesOnPool(t *testing.T) {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:        writeConfig(t, t.TempDir()),
		SkipPrivilegeDrop: true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	ran := false
	require.NoError(t, app.RunBlocking(context.Background(), func() { ran = true }))
	assert.True(t, ran, "RunBlocking must wait for the task to finish")
}

func TestCloseLogsSessionSummary(t *testing.T) {
	root := t.TempDir()
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:        writeConfig(t, root),
		SkipPrivilegeDrop: true,
	})
	require.NoError(t, err)

	app.Audit.LogCommand(context.Background(), "nmap", []string{"-F"}, audit.StatusSuccess, 0)
	app.Audit.LogCommand(context.Background(), "badcmd", nil, audit.StatusBlockedCommand, -1)
	require.NoError(t, app.Close())

	data, err := os.ReadFile(filepath.Join(root, "logs", "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "session command summary")
	assert.Contains(t, string(data), `"total":2`)
	assert.Contains(t, string(data), `"blocked":1`)
}

func TestCloseIsSafeAfterUse(t *testing.T) {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath:        writeConfig(t, t.TempDir()),
		SkipPrivilegeDrop: true,
	})
	require.NoError(t, err)

	app.Tokens.Set("secret")
	require.NoError(t, app.Close())

	_, ok := app.Tokens.Get()
	assert.False(t, ok, "close must clear the credential cache")
}
