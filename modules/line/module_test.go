package line_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/internal/testutil"
	"github.com/vk/aether/modules/axis"
	"github.com/vk/aether/modules/label"
	"github.com/vk/aether/modules/line"
	"github.com/vk/aether/modules/root"
)

var bounds = surface.Region{Width: 200, Height: 100}

func newHarness(t *testing.T) *testutil.Harness {
	t.Helper()
	h := testutil.NewHarness(t, bounds, &root.Module{}, &axis.Module{}, &line.Module{}, &label.Module{})
	h.MustUpdate("root.x", "axis", map[string]any{"bounds": []any{0, 4}})
	h.Flush()
	h.Notifications()
	return h
}

func TestLine_StrokesSamplesInPlotArea(t *testing.T) {
	h := newHarness(t)

	h.MustUpdate("root.x.s", "line", map[string]any{"values": []any{0, 1, 2, 3, 4}})
	res, ops := h.Flush()

	// The axis re-runs as the line's ancestor and draws first.
	assert.Equal(t, []string{"root.x", "root.x.s"}, res.Drawn)
	strokes := testutil.OpsOf(ops, surface.OpStroke)
	last := strokes[len(strokes)-1]
	assert.Equal(t, surface.Region{Width: 200, Height: 70}, last.Clip)
	assert.Equal(t, []surface.Point{
		{X: 0, Y: 70}, {X: 50, Y: 52.5}, {X: 100, Y: 35}, {X: 150, Y: 17.5}, {X: 200, Y: 0},
	}, last.Points)
	assert.Equal(t, surface.Color{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, last.Style.Stroke)
	assert.Equal(t, 1.0, last.Style.Width)
}

func TestLine_ExplicitRange(t *testing.T) {
	h := newHarness(t)

	h.MustUpdate("root.x.s", "line", map[string]any{"values": []any{0, 4}, "range": []any{0, 8}, "width": 2})
	_, ops := h.Flush()

	strokes := testutil.OpsOf(ops, surface.OpStroke)
	last := strokes[len(strokes)-1]
	assert.Equal(t, []surface.Point{{X: 0, Y: 70}, {X: 50, Y: 35}}, last.Points)
	assert.Equal(t, 2.0, last.Style.Width)

	err := h.Update("root.x.s", "line", map[string]any{"values": []any{1}, "range": []any{3, 3}})
	require.ErrorContains(t, err, "range must hold two distinct values")
}

func TestLine_RequiresAxis(t *testing.T) {
	h := newHarness(t)

	err := h.Update("root.s", "line", map[string]any{"values": []any{1, 2}})
	require.ErrorIs(t, err, node.ErrMissingContextValue)

	notes := h.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, comms.KindError, notes[0].Kind)
	assert.Equal(t, "root.s", notes[0].Key)
}

func TestLine_DeleteErasesExtent(t *testing.T) {
	h := newHarness(t)
	h.MustUpdate("root.x.s", "line", map[string]any{"values": []any{1, 3}})
	h.Flush()

	require.NoError(t, h.Delete("root.x.s"))
	res, ops := h.Flush()

	// The stroke extent grows past the plot and is clipped back to it. The
	// axis re-runs as the parent of the deleted node and redraws after.
	require.NotEmpty(t, ops)
	assert.Equal(t, surface.OpErase, ops[0].Kind)
	assert.Equal(t, surface.Region{Width: 50.5, Height: 70}, ops[0].Region)
	assert.Equal(t, []string{"root.x"}, res.Drawn)
}

func TestLine_EmptySeriesCancels(t *testing.T) {
	h := newHarness(t)
	h.MustUpdate("root.x.s", "line", map[string]any{"values": []any{1, 2}})
	h.Flush()

	h.MustUpdate("root.x.s", "line", map[string]any{"values": []any{}})
	res, ops := h.Flush()

	assert.Equal(t, []string{"root.x"}, res.Drawn)
	assert.Equal(t, surface.OpErase, ops[0].Kind)
	assert.Equal(t, surface.Region{Width: 50.5, Height: 70}, ops[0].Region)
}

func TestLine_FollowsAxisBounds(t *testing.T) {
	h := newHarness(t)
	h.MustUpdate("root.x.s", "line", map[string]any{"values": []any{0, 1}})
	h.Flush()

	// New bounds change the published scale, which re-runs the line.
	h.MustUpdate("root.x", "axis", map[string]any{"bounds": []any{0, 2}})
	res, ops := h.Flush()

	assert.Equal(t, []string{"root.x", "root.x.s"}, res.Drawn)
	strokes := testutil.OpsOf(ops, surface.OpStroke)
	last := strokes[len(strokes)-1]
	assert.Equal(t, []surface.Point{{X: 0, Y: 70}, {X: 100, Y: 0}}, last.Points)
}

func TestProject(t *testing.T) {
	scale, err := axis.NewScale(0, 2, axis.Left, 10, surface.Region{Width: 110, Height: 100})
	require.NoError(t, err)

	got := line.Project(scale, []float64{0, 5, 10}, 0, 10)
	assert.Equal(t, []surface.Point{{X: 10, Y: 100}, {X: 60, Y: 50}, {X: 110, Y: 0}}, got)
}
