// Package scheduler queues the draw work of tree nodes and runs it against
// the drawing surface once per frame tick.
//
// # Why Scheduler Exists
//
// Nodes learn that their visual output changed while their update hooks
// run, often several times per frame. Drawing right away would waste work
// and interleave draws with tree mutation. Instead nodes submit requests:
//   - **Coalescing:** Only the latest request per key survives until the
//     next flush.
//   - **Ordering:** High priority requests are drawn before low priority
//     ones; within a priority, in submission order.
//   - **Erase-then-redraw:** Every draw returns a cleanup that runs right
//     before the same key draws again, so moving or resizing regions never
//     leave stale pixels behind.
//   - **Isolation:** A draw that fails or panics is reported against its
//     key and the rest of the frame is still drawn.
//
// # Relationship with Other Components
//
//   - **Tree:** Nodes reach the scheduler through the context value stored
//     under ContextKey, and the tree cancels a node's key when it is deleted.
//   - **Engine:** Calls Flush on every frame tick.
//   - **Surface:** The shared target every draw runs against.
package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/surface"
)

// ContextKey is the context key under which the tree's seed publishes the
// scheduler to every node.
const ContextKey = "scheduler"

// Priority orders requests within a flush.
type Priority int

const (
	High Priority = iota
	Low
)

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// Cleanup undoes the visible effect of a draw, typically by erasing the
// region it drew into.
type Cleanup func(s surface.Surface)

// DrawFunc draws onto the surface. It should scissor itself to its region.
// The returned cleanup, which may be nil, runs before the same key's next
// draw.
type DrawFunc func(ctx context.Context, s surface.Surface) (Cleanup, error)

// Request is one pending draw.
type Request struct {
	Key      string
	Priority Priority
	Draw     DrawFunc
}

// Requester is the view of the scheduler that nodes use.
//
// # Usage Pattern
//
// A node looks the requester up in its update hook and submits a request
// keyed by its render key:
//
//	r, err := scheduler.FromContext(c)
//	if err != nil {
//	    return err
//	}
//	r.RequestRender(scheduler.Request{Key: n.RenderKey(), Priority: scheduler.Low, Draw: draw})
//
// # Thread-Safety
//
// None. Requests are submitted from hooks, which run on the engine
// goroutine that also flushes.
type Requester interface {
	// RequestRender queues r, replacing any pending request with the same
	// key.
	RequestRender(r Request)

	// Cancel drops the pending request for key, if any, and arranges for the
	// key's retained cleanup to run at the start of the next flush.
	Cancel(key string)
}

// FromContext returns the requester published under ContextKey.
func FromContext(c *node.Context) (Requester, error) {
	r, err := node.ContextValue[Requester](c, ContextKey)
	if err != nil {
		return nil, fmt.Errorf("render scheduler: %w", err)
	}
	return r, nil
}
