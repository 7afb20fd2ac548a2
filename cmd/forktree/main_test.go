package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesm/forktree/internal/config"
	"github.com/wesm/forktree/internal/sync"
	"github.com/wesm/forktree/internal/testjsonl"
)

// setupEnv isolates config and data dirs and returns a project
// directory holding one forked prompt and one singleton.
func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("FORKTREE_DATA_DIR", t.TempDir())
	t.Setenv("CLAUDE_PROJECTS_DIR", t.TempDir())
	t.Setenv("FORKTREE_RESUME_COMMAND", "")

	dir := t.TempDir()
	testjsonl.WriteSession(t, dir, "root", testjsonl.Conversation(
		"Fix the bug", "2024-03-04T10:00:00Z", "2024-03-04T10:01:00Z",
	))
	testjsonl.WriteSession(t, dir, "fork", testjsonl.Conversation(
		"fix  the BUG", "2024-03-04T11:00:00Z", "2024-03-04T11:01:00Z",
	))
	testjsonl.WriteSession(t, dir, "docs", testjsonl.Conversation(
		"Write docs", "2024-03-04T09:00:00Z", "2024-03-04T09:01:00Z",
	))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_TextTree(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := execute(t, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"├── Mar 04 09:00 (2 msgs) Write docs",
		"└── Mar 04 10:00 (2 msgs) Fix the bug",
		"    └── Mar 04 11:00 (2 msgs) fix the BUG",
		"",
		"Resume: claude --resume <session-id>",
	}, strings.Split(strings.TrimRight(out, "\n"), "\n"))
}

func TestRoot_ResumeHintUsesConfiguredCommand(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("FORKTREE_RESUME_COMMAND", "my-claude -r")

	out, _, err := execute(t, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\nResume: my-claude -r <session-id>\n"))

	out, _, err = execute(t, dir, "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "Resume:")
}

func TestExpandLevels(t *testing.T) {
	assert.Equal(t, 0, expandLevels(-1))
	assert.Equal(t, 1, expandLevels(0))
	assert.Equal(t, 3, expandLevels(2))
}

func TestRoot_DepthZero(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := execute(t, dir, "--depth", "0", "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "    └── ... 1 fork(s)\n")
	assert.NotContains(t, out, "11:00")
}

func TestRoot_JSON(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := execute(t, dir, "--json")
	require.NoError(t, err)

	var got struct {
		Edges    [][2]string         `json:"edges"`
		Roots    []string            `json:"roots"`
		Children map[string][]string `json:"children"`
		Sessions map[string]any      `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"docs", "root"}, got.Roots)
	assert.Equal(t, [][2]string{{"root", "fork"}}, got.Edges)
	assert.Equal(t, map[string][]string{"root": {"fork"}}, got.Children)
	assert.Len(t, got.Sessions, 3)
}

func TestRoot_Filter(t *testing.T) {
	dir := setupEnv(t)

	out, _, err := execute(t, dir, "--filter", "BUG")
	require.NoError(t, err)
	assert.Equal(t,
		"└── Mar 04 10:00 (2 msgs) Fix the bug\n"+
			"    └── Mar 04 11:00 (2 msgs) fix the BUG\n"+
			"\nResume: claude --resume <session-id>\n",
		out)
}

func TestRoot_FilterNoMatch(t *testing.T) {
	dir := setupEnv(t)

	out, errOut, err := execute(t, dir, "--filter", "nothing here")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, `No session matches "nothing here"`)
}

func TestRoot_MissingProject(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, config.ErrInputNotFound)
}

func TestRoot_NoSessions(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, t.TempDir())
	assert.ErrorIs(t, err, sync.ErrNoSessions)
}

func TestRoot_FlagConflicts(t *testing.T) {
	dir := setupEnv(t)

	_, _, err := execute(t, dir, "--watch", "-i")
	assert.ErrorContains(t, err, "--watch")

	_, _, err = execute(t, dir, "--exec")
	assert.ErrorContains(t, err, "--interactive")

	_, _, err = execute(t, dir, "extra", "args")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	setupEnv(t)

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "forktree dev (commit unknown)\n", out)
}

func TestSetResumeCmd(t *testing.T) {
	setupEnv(t)

	out, _, err := execute(t, "set-resume", "my-claude -r")
	require.NoError(t, err)
	assert.Contains(t, out, `"my-claude -r"`)

	data, err := os.ReadFile(
		filepath.Join(os.Getenv("FORKTREE_DATA_DIR"), "config.json"),
	)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"resume_command": "my-claude -r"`)

	_, _, err = execute(t, "set-resume", `broken "quote`)
	assert.Error(t, err)
}

func TestCacheCmd(t *testing.T) {
	dir := setupEnv(t)

	_, _, err := execute(t, dir)
	require.NoError(t, err)

	out, _, err := execute(t, "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Records:  3\n")
	assert.Contains(t, out, "Sessions: 3\n")

	out, _, err = execute(t, "cache", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "Cache cleared\n", out)

	out, _, err = execute(t, "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Records:  0\n")

	_, _, err = execute(t, "cache", "--no-cache")
	assert.Error(t, err)
}
