package app

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/aether/internal/comms"
)

const plotScene = `
commands:
  - variant: update
    path: root
    type: root
    state: {background: "#ffffff"}
  - variant: update
    path: root.x
    type: axis
    state: {bounds: [0, 4]}
  - variant: update
    path: root.x.cpu
    type: line
    state: {values: [1, 3, 2, 5, 4]}
  - variant: update
    path: root.x.title
    type: label
    state: {text: CPU}
`

func writeScene(t *testing.T, name, src string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func keysOf(notes []comms.Notification) []string {
	var keys []string
	for _, n := range notes {
		keys = append(keys, n.String())
	}
	return keys
}

func TestNewApp_RegistersCoreModules(t *testing.T) {
	a, _ := SetupAppTest(t, TestConfig())
	assert.Equal(t, []string{"axis", "label", "line", "root"}, a.Registry().TypeNames())
}

func TestNewApp_PanicsOnBadManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"), []byte(`node "x" {`), 0o644))

	cfg := TestConfig()
	cfg.ModulesPath = dir
	assert.Panics(t, func() { NewApp(io.Discard, cfg) })
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{Width: 10, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Mode)

	for _, bad := range []Config{
		{Width: 10, Height: 10, Mode: "staging"},
		{Width: 0, Height: 10},
		{Width: 10, Height: 10, FPS: -1},
		{Width: 10, Height: 10, HealthcheckPort: -1},
	} {
		_, err := NewConfig(bad)
		assert.Error(t, err, "%+v", bad)
	}
}

func TestRunScene(t *testing.T) {
	a, _ := SetupAppTest(t, TestConfig())
	report, err := a.RunScene(context.Background(), writeScene(t, "plot.yaml", plotScene))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Commands)
	assert.Zero(t, report.Rejected)
	// High priority first, then low, each in order of the latest request.
	// Ancestors re-request after every descendant update, so the root's
	// request is the newest.
	assert.Equal(t, []string{
		"rendered root.x",
		"rendered root",
		"rendered root.x.cpu",
		"rendered root.x.title",
	}, keysOf(report.Notifications))
	assert.NotZero(t, report.Ops)

	again, err := a.RunScene(context.Background(), writeScene(t, "plot.yaml", plotScene))
	require.NoError(t, err)
	assert.Equal(t, report.Digest, again.Digest)

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "rendered root.x.cpu\n")
	assert.Contains(t, out.String(), "frame "+report.Digest.String())
}

func TestRunScene_ReportsRejections(t *testing.T) {
	a, _ := SetupAppTest(t, TestConfig())
	scene := `
commands:
  - {variant: update, path: root.x.cpu, type: line, state: {values: [1]}}
  - {variant: update, path: root.l, type: line, state: {values: [1]}}
  - {variant: update, path: root.x, type: axis, state: {bounds: [1, 1]}}
`
	report, err := a.RunScene(context.Background(), writeScene(t, "bad.yaml", scene))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rejected)

	keys := keysOf(report.Notifications)
	require.Len(t, keys, 3)
	assert.True(t, strings.HasPrefix(keys[0], "error root.x.cpu: "), keys[0])
	assert.Contains(t, keys[1], "missing context value")
	assert.Contains(t, keys[2], "empty domain")
}

func TestReplay_MatchesRun(t *testing.T) {
	cfg := TestConfig()
	cfg.JournalPath = filepath.Join(t.TempDir(), "session.zst")
	a, _ := SetupAppTest(t, cfg)
	run, err := a.RunScene(context.Background(), writeScene(t, "plot.yaml", plotScene))
	require.NoError(t, err)

	replayer, _ := SetupAppTest(t, TestConfig())
	replay, err := replayer.Replay(context.Background(), cfg.JournalPath)
	require.NoError(t, err)
	assert.Equal(t, run.Commands, replay.Commands)
	assert.Equal(t, run.Digest, replay.Digest)
}

func TestRunScene_RejectsTypeDefinitions(t *testing.T) {
	a, _ := SetupAppTest(t, TestConfig())
	_, err := a.RunScene(context.Background(), writeScene(t, "types.hcl", `node "x" {}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot define node types")
}

func TestHealthCheckServer(t *testing.T) {
	cfg := TestConfig()
	cfg.HealthcheckPort = 9999
	a, _ := SetupAppTest(t, cfg)
	srv := a.healthCheckServer()
	require.NotNil(t, srv)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	cfg.HealthcheckPort = 0
	assert.Nil(t, a.healthCheckServer())
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := TestConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.FPS = 30
	cfg.ScenePath = writeScene(t, "plot.yaml", plotScene)
	a, logs := SetupAppTest(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Serve(ctx))
	assert.Contains(t, logs.String(), "Scene queued.")
	assert.Contains(t, logs.String(), "Frame drawn.")
}

func TestServe_BadSceneBuildsNothing(t *testing.T) {
	cfg := TestConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.ScenePath = writeScene(t, "types.hcl", `node "x" {}`)
	a, logs := SetupAppTest(t, cfg)
	before := runtime.NumGoroutine()

	err := a.Serve(context.Background())
	require.ErrorContains(t, err, "cannot define node types")

	assert.NotContains(t, logs.String(), "Tree created.")
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}
