package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	origVersion, origBuild, origCommit := AppVersion, BuildTime, GitCommit
	defer func() {
		AppVersion, BuildTime, GitCommit = origVersion, origBuild, origCommit
	}()

	AppVersion = "1.2.3"
	BuildTime = "2026-01-01T00:00:00Z"
	GitCommit = "abc123"

	out, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "docuquery 1.2.3")
	assert.Contains(t, out, "Build Time: 2026-01-01T00:00:00Z")
	assert.Contains(t, out, "Git Commit: abc123")
}

func TestHelpListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "ask")
	assert.Contains(t, out, "ingest")
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "version")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "nonsense")
	assert.Error(t, err)
}

func TestAskRequiresOwner(t *testing.T) {
	_, err := execute(t, "ask", "what is up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")
}

func TestIngestRequiresFileArg(t *testing.T) {
	_, err := execute(t, "ingest", "--owner", "alice")
	assert.Error(t, err)
}
