// Package testutil holds the harness shared by node module tests: a registry
// built from the modules under test and a headless engine drawing into a
// recorder.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/engine"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodepath"
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/schema"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/internal/tree"
	"github.com/vk/aether/modules/root"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Harness drives a headless engine from a test.
type Harness struct {
	t        *testing.T
	Ctx      context.Context
	Registry *registry.Registry
	Engine   *engine.Engine
	Surface  *surface.Recorder
	Logs     *SafeBuffer

	notes []comms.Notification
}

// NewHarness registers modules, validates the registry and starts an engine
// in development mode on a recorder with the given bounds.
func NewHarness(t *testing.T, bounds surface.Region, modules ...registry.Module) *Harness {
	t.Helper()

	logs := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := registry.New()
	for _, m := range modules {
		m.Register(reg)
	}
	require.NoError(t, reg.LoadManifests(ctx, ""))
	require.NoError(t, reg.ValidateRegistry(ctx))

	h := &Harness{t: t, Ctx: ctx, Registry: reg, Logs: logs, Surface: surface.NewRecorder(bounds)}
	notify := comms.SenderFunc[comms.Notification](func(n comms.Notification) bool {
		h.notes = append(h.notes, n)
		return true
	})
	eng, err := engine.New(ctx, reg, h.Surface, notify, engine.Options{
		Mode: tree.Development,
		Seed: map[string]any{root.BoundsKey: bounds},
	})
	require.NoError(t, err)
	h.Engine = eng

	t.Cleanup(func() {
		eng.Close()
		if os.Getenv("AETHER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return h
}

// Update applies an update command. state is converted with schema.FromNative.
func (h *Harness) Update(path, typeName string, state map[string]any) error {
	h.t.Helper()
	v, err := schema.FromNative(state)
	require.NoError(h.t, err)
	return h.Engine.Apply(h.Ctx, comms.Command{
		Variant: comms.VariantUpdate,
		Path:    nodepath.MustParse(path),
		Type:    typeName,
		State:   v,
	})
}

// MustUpdate is Update failing the test on error.
func (h *Harness) MustUpdate(path, typeName string, state map[string]any) {
	h.t.Helper()
	require.NoError(h.t, h.Update(path, typeName, state))
}

// Delete applies a delete command.
func (h *Harness) Delete(path string) error {
	return h.Engine.Apply(h.Ctx, comms.Command{Variant: comms.VariantDelete, Path: nodepath.MustParse(path)})
}

// Flush clears the recorder and flushes one frame, returning the ops drawn.
func (h *Harness) Flush() (scheduler.FlushResult, []surface.Op) {
	h.Surface.Reset()
	res := h.Engine.Flush(h.Ctx)
	return res, h.Surface.Ops()
}

// Notifications returns and forgets the notifications sent so far.
func (h *Harness) Notifications() []comms.Notification {
	out := h.notes
	h.notes = nil
	return out
}

// Node returns the live node at path.
func (h *Harness) Node(path string) *node.Node {
	h.t.Helper()
	n, err := h.Engine.Tree().Get(nodepath.MustParse(path))
	require.NoError(h.t, err)
	return n
}

// OpsOf filters ops by kind.
func OpsOf(ops []surface.Op, kind surface.OpKind) []surface.Op {
	var out []surface.Op
	for _, op := range ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}
