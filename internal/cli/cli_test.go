package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/lao/internal/config"
	"github.com/aretw0/lao/internal/presentation/tui"
	"github.com/aretw0/lao/internal/testutils"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/workflowfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvPluginsDir, config.EnvLogLevel, config.EnvLogFormat, config.EnvRedisURL, config.EnvWorkers} {
		t.Setenv(k, "")
	}
}

// setup writes a plugin directory with Shout and a workflow file feeding
// input through two Shout nodes.
func setup(t *testing.T, input string) (pluginsDir, workflow string) {
	t.Helper()
	testutils.SkipOnWindows(t)
	clearEnv(t)

	root := t.TempDir()
	pluginsDir = filepath.Join(root, "plugins")
	require.NoError(t, os.Mkdir(pluginsDir, 0o755))
	testutils.WriteScript(t, pluginsDir, "shout", testutils.ShoutScript)

	workflow = filepath.Join(root, "flow.yaml")
	doc := "name: flow\nnodes:\n  - id: a\n    run: Shout\n    input: " + input + "\n  - id: b\n    run: Shout\nedges:\n  - from: a\n    to: b\n"
	require.NoError(t, os.WriteFile(workflow, []byte(doc), 0o644))
	return pluginsDir, workflow
}

func TestExecute_Success(t *testing.T) {
	plugins, workflow := setup(t, "hello")
	outPath := filepath.Join(filepath.Dir(workflow), "result.json")
	noRetry := 0

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Options:      Options{PluginsDir: plugins, Retries: &noRetry},
		WorkflowPath: workflow,
		Parallel:     true,
		Output:       outPath,
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "✓ DONE a")
	assert.Contains(t, text, "✓ DONE b")
	assert.Contains(t, text, "Workflow succeeded.")
	assert.Less(t, strings.Index(text, "DONE a"), strings.Index(text, "DONE b"))

	saved, err := workflowfile.Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, saved.Node("b").Status)
	assert.Equal(t, "HELLO", strings.TrimSpace(saved.Node("b").Output))
}

func TestExecute_Failure(t *testing.T) {
	plugins, workflow := setup(t, "bad")
	noRetry := 0

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Options:      Options{PluginsDir: plugins, Retries: &noRetry},
		WorkflowPath: workflow,
	}, &out)

	var failed *FailedError
	require.True(t, errors.As(err, &failed), "got %v", err)
	assert.Equal(t, []string{"a", "b"}, failed.Failed)
	assert.Contains(t, out.String(), "✗ ERROR a")
	assert.Contains(t, out.String(), "skipped due to upstream failure of 'a'")
	assert.Contains(t, out.String(), "Workflow failed: a, b")
}

func TestExecute_JSONLines(t *testing.T) {
	plugins, workflow := setup(t, "hi")

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Options:      Options{PluginsDir: plugins},
		WorkflowPath: workflow,
		JSON:         true,
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], `"type":"workflow_completed"`)
	assert.Contains(t, lines[0], `"status":"running"`)
}

func TestExecute_NoPlugins(t *testing.T) {
	_, workflow := setup(t, "x")
	err := Execute(context.Background(), RunOptions{
		Options:      Options{PluginsDir: t.TempDir()},
		WorkflowPath: workflow,
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no plugins loaded")
}

func TestValidate_ReportsUnknownPlugins(t *testing.T) {
	plugins, workflow := setup(t, "x")
	doc, err := os.ReadFile(workflow)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(workflow, []byte(strings.Replace(string(doc), "run: Shout\nedges", "run: Missing\nedges", 1)), 0o644))

	var out bytes.Buffer
	require.NoError(t, Validate(context.Background(), Options{PluginsDir: plugins}, workflow, &out))
	assert.Contains(t, out.String(), `unknown plugin "Missing"`)
	assert.Contains(t, out.String(), "2 nodes in 2 levels")
}

func TestExportGraph(t *testing.T) {
	_, workflow := setup(t, "x")

	var out bytes.Buffer
	require.NoError(t, ExportGraph(workflow, true, &out))
	assert.Contains(t, out.String(), "a --> b")
	assert.Contains(t, out.String(), "class a pending;")
}

func TestListPlugins(t *testing.T) {
	plugins, _ := setup(t, "x")

	var out bytes.Buffer
	require.NoError(t, ListPlugins(context.Background(), Options{PluginsDir: plugins}, &out, false))
	assert.Contains(t, out.String(), "Shout")
	assert.Contains(t, out.String(), "1.0.0")
	assert.Contains(t, out.String(), "case,text")

	out.Reset()
	require.NoError(t, ListPlugins(context.Background(), Options{PluginsDir: plugins}, &out, true))
	assert.Contains(t, out.String(), `"name":"Shout"`)
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	retries := 7

	cfg, err := loadConfig(Options{PluginsDir: "custom", Workers: 2, Retries: &retries, LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.PluginsDir)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 7, cfg.Retry.Limit)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg, err = loadConfig(Options{})
	require.NoError(t, err)
	assert.Equal(t, config.Default().Retry.Limit, cfg.Retry.Limit)
}

func TestRunPrinter(t *testing.T) {
	var out bytes.Buffer
	p := NewRunPrinter(&out, tui.NewStyle(false), false)

	p.Print(domain.NewNodeEvent(&domain.NodeEvent{NodeID: "a", Plugin: "X", Status: domain.StatusRunning, Attempt: 1}))
	assert.Empty(t, out.String(), "first attempt is quiet unless verbose")

	p.Print(domain.NewNodeEvent(&domain.NodeEvent{NodeID: "a", Plugin: "X", Status: domain.StatusRunning, Attempt: 2, Message: "retry 1 of 2"}))
	p.Print(domain.NewNodeEvent(&domain.NodeEvent{NodeID: "a", Status: domain.StatusSuccess, Progress: 0.5}))
	p.Print(domain.NewNodeEvent(&domain.NodeEvent{NodeID: "b", Status: domain.StatusCache, Progress: 0.75}))
	p.Print(domain.NewNodeEvent(&domain.NodeEvent{NodeID: "c", Status: domain.StatusError, Error: "boom\ntrace", Progress: 1}))
	p.Print(domain.NewWorkflowEvent(&domain.WorkflowEvent{Success: false, Failed: []string{"c"}}))

	assert.Equal(t, strings.Join([]string{
		"[  0%] ↻ a (X) retry 1 of 2",
		"[ 50%] ✓ DONE a",
		"[ 75%] ✓ DONE b (cached)",
		"[100%] ✗ ERROR c: boom …",
		">>> Workflow failed: c",
		"",
	}, "\n"), out.String())
}

func TestSummary(t *testing.T) {
	g := &domain.WorkflowGraph{Nodes: []domain.GraphNode{
		{ID: "a", Run: "X", Status: domain.StatusSuccess, Attempt: 1, Output: "line one\nline | two"},
		{ID: "b", Run: "Y", Status: domain.StatusError, Attempt: 3, Error: "boom"},
	}}
	md := Summary(g)
	assert.Contains(t, md, "# Workflow")
	assert.Contains(t, md, "| a | X | success | 1 | line one line \\| two |")
	assert.Contains(t, md, "| b | Y | error | 3 | boom |")
}
