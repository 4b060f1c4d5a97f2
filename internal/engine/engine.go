package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/inmemorystore"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/internal/tree"
)

// Recorder persists inbound commands. journal.Writer implements it.
type Recorder interface {
	Append(c comms.Command) error
}

// Observer is notified about every command the engine applies.
type Observer interface {
	CommandApplied(variant comms.Variant, err error)
}

type nopObserver struct{}

func (nopObserver) CommandApplied(comms.Variant, error) {}

// Options configures an Engine.
type Options struct {
	Mode tree.Mode
	// FPS is the frame rate of the flush ticker. Zero disables the ticker;
	// the caller then flushes explicitly.
	FPS int
	// Seed is merged into the root context next to the scheduler.
	Seed map[string]any

	Journal           Recorder
	Observer          Observer
	TreeObserver      tree.Observer
	SchedulerObserver scheduler.Observer
}

// Engine owns a tree and its scheduler.
type Engine struct {
	tree     *tree.Tree
	sched    *scheduler.Scheduler
	surf     surface.Surface
	commands *comms.Pipe[comms.Command]
	notify   comms.Sender[comms.Notification]
	opts     Options
	observer Observer
	frames   int
}

// New builds the tree, with the scheduler seeded into its root context
// under scheduler.ContextKey, and the inbound command pipe.
func New(ctx context.Context, types tree.Types, surf surface.Surface, notify comms.Sender[comms.Notification], opts Options) (*Engine, error) {
	if notify == nil {
		notify = comms.SenderFunc[comms.Notification](func(comms.Notification) bool { return true })
	}
	e := &Engine{
		surf:     surf,
		notify:   notify,
		opts:     opts,
		observer: opts.Observer,
		commands: comms.NewPipe[comms.Command](),
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	e.sched = scheduler.New(scheduler.Options{Notifier: notify, Observer: opts.SchedulerObserver})

	seed := node.Overlay(opts.Seed, map[string]any{scheduler.ContextKey: scheduler.Requester(e.sched)})
	t, err := tree.New(ctx, inmemorystore.New(), types, tree.Options{
		Seed:     seed,
		Renders:  e.sched,
		Notifier: notify,
		Mode:     opts.Mode,
		Observer: opts.TreeObserver,
	})
	if err != nil {
		e.commands.Stop()
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.tree = t
	return e, nil
}

// Commands returns the inbound side of the engine. Sending never blocks and
// commands are applied in send order.
func (e *Engine) Commands() comms.Sender[comms.Command] { return e.commands }

// Tree returns the engine's tree. It must only be used from the engine's
// goroutine, or while Run is not active.
func (e *Engine) Tree() *tree.Tree { return e.tree }

// Scheduler returns the engine's render scheduler.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }

// Frames returns the number of flushes that drew or cleaned up something.
func (e *Engine) Frames() int { return e.frames }

// Apply applies one command to the tree. A failure is also sent as an error
// notification keyed by the command path.
func (e *Engine) Apply(ctx context.Context, c comms.Command) error {
	logger := ctxlog.FromContext(ctx)
	if e.opts.Journal != nil {
		if err := e.opts.Journal.Append(c); err != nil {
			logger.Warn("Failed to journal command.", "command", c.String(), "error", err)
		}
	}

	var err error
	switch c.Variant {
	case comms.VariantUpdate:
		err = e.tree.ApplyUpdate(ctx, c.Path, c.Type, c.State)
	case comms.VariantDelete:
		err = e.tree.ApplyDelete(ctx, c.Path)
	default:
		err = fmt.Errorf("unknown command variant %q", c.Variant)
	}
	e.observer.CommandApplied(c.Variant, err)
	if err != nil {
		logger.Warn("Command rejected.", "command", c.String(), "error", err)
		e.notify.Send(comms.Failed(c.Path.String(), err))
		return err
	}
	logger.Debug("Command applied.", "command", c.String())
	return nil
}

// Flush runs one frame. It does nothing when no draw work is queued.
func (e *Engine) Flush(ctx context.Context) scheduler.FlushResult {
	if e.sched.Idle() {
		return scheduler.FlushResult{}
	}
	e.frames++
	return e.sched.Flush(ctx, e.surf)
}

// Run is the engine loop. It applies commands as they arrive and flushes on
// every frame tick until ctx is cancelled or Close is called. Queued draw
// work is flushed once more before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Engine started.", "fps", e.opts.FPS, "mode", e.opts.Mode)

	var tick <-chan time.Time
	if e.opts.FPS > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(e.opts.FPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			e.commands.Stop()
			logger.Info("Engine stopped.", "reason", ctx.Err())
			return nil
		case c, ok := <-e.commands.Recv():
			if !ok {
				e.Flush(ctx)
				logger.Info("Engine stopped.", "reason", "command pipe closed")
				return nil
			}
			// Rejected commands were already reported as notifications.
			_ = e.Apply(ctx, c)
		case <-tick:
			e.Flush(ctx)
		}
	}
}

// Close stops accepting commands. Run applies the commands already queued
// and returns.
func (e *Engine) Close() {
	e.commands.Close()
}
