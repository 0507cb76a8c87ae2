package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// run executes the root command with a fresh config and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: error\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	t.Cleanup(func() {
		if rt != nil {
			rt.Close()
			rt = nil
		}
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunsCommand_Empty(t *testing.T) {
	out, err := run(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")
}

func TestStatusCommand_FreshMirror(t *testing.T) {
	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No sync has run yet")
}

func TestDriftCommand_Clean(t *testing.T) {
	out, err := run(t, "drift")
	require.NoError(t, err)
	assert.Contains(t, out, "Records and artifacts agree")
}

func TestSyncCommand_RequiresSource(t *testing.T) {
	_, err := run(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confluence not configured")
}

func TestRenderRunLine(t *testing.T) {
	line := renderRunLine(domain.RunRecord{ID: 12, Status: domain.RunRunning})
	assert.Contains(t, line, "#12")
	assert.Contains(t, line, "open")
	assert.Contains(t, line, "processed=0")
}
