package app

import (
	"context"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/journal"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/internal/transport"
)

// Report summarizes a headless run.
type Report struct {
	Commands      int
	Rejected      int
	Notifications []comms.Notification
	Ops           int
	Digest        surface.Digest
}

// Print writes the notifications followed by a frame summary line.
func (r *Report) Print(w io.Writer) {
	for _, n := range r.Notifications {
		fmt.Fprintln(w, n.String())
	}
	fmt.Fprintf(w, "frame %s ops=%d commands=%d rejected=%d\n", r.Digest, r.Ops, r.Commands, r.Rejected)
}

type collector struct{ notes []comms.Notification }

func (c *collector) Send(n comms.Notification) bool {
	c.notes = append(c.notes, n)
	return true
}

// RunScene applies the scene at paths to a fresh engine, flushes once and
// reports the result.
func (a *App) RunScene(ctx context.Context, paths ...string) (*Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cmds, err := a.loadScene(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return a.headless(ctx, func(yield func(comms.Command, error) bool) {
		for _, c := range cmds {
			if !yield(c, nil) {
				return
			}
		}
	})
}

// Replay feeds a recorded journal through a fresh engine.
func (a *App) Replay(ctx context.Context, path string) (*Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	r, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return a.headless(ctx, r.All())
}

func (a *App) headless(ctx context.Context, cmds iter.Seq2[comms.Command, error]) (*Report, error) {
	rec, closeJournal, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	defer closeJournal()

	notes := &collector{}
	eng, surf, err := a.newEngine(ctx, notes, rec, 0, false)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for c, err := range cmds {
		if err != nil {
			return nil, err
		}
		report.Commands++
		if err := eng.Apply(ctx, c); err != nil {
			report.Rejected++
		}
	}
	eng.Flush(ctx)

	report.Notifications = slices.Clone(notes.notes)
	report.Ops = len(surf.Ops())
	if report.Digest, err = surf.Digest(); err != nil {
		return nil, err
	}
	a.logger.Info("Headless run finished.", "commands", report.Commands, "rejected", report.Rejected, "ops", report.Ops)
	return report, nil
}

// Send pushes the scene at path to the engine listening at addr and waits
// until the server has forwarded every command.
func (a *App) Send(ctx context.Context, addr string, path string) (int, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cmds, err := a.loadScene(ctx, path)
	if err != nil {
		return 0, err
	}

	client, err := transport.Dial(ctx, addr, transport.ClientOptions{})
	if err != nil {
		return 0, err
	}
	defer client.Close()

	for _, c := range cmds {
		if err := client.Send(c); err != nil {
			return 0, fmt.Errorf("send %s: %w", c, err)
		}
	}
	n, err := client.Sync(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for server: %w", err)
	}
	if n != len(cmds) {
		return n, fmt.Errorf("server forwarded %d of %d commands", n, len(cmds))
	}
	a.logger.Info("Scene sent.", "addr", addr, "commands", n)
	return n, nil
}
