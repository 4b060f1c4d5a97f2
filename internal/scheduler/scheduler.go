package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/surface"
)

// ErrDrawPanic wraps a panic recovered from a draw or cleanup.
var ErrDrawPanic = errors.New("draw panicked")

// Observer is notified about every draw and every flush.
type Observer interface {
	Drawn(p Priority, err error)
	Flushed(requests int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Drawn(Priority, error)        {}
func (nopObserver) Flushed(int, time.Duration) {}

// Options configures a Scheduler.
type Options struct {
	// Notifier receives a rendered or error notification per drawn key.
	Notifier comms.Sender[comms.Notification]
	Observer Observer
}

type pending struct {
	Request
	seq uint64
}

type orphan struct {
	key     string
	cleanup Cleanup
}

// Scheduler is the default Requester implementation.
type Scheduler struct {
	pending  map[string]pending
	cleanups map[string]Cleanup
	orphans  []orphan
	seq      uint64
	notifier comms.Sender[comms.Notification]
	observer Observer
}

var _ Requester = (*Scheduler)(nil)

// New creates an empty scheduler.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		pending:  make(map[string]pending),
		cleanups: make(map[string]Cleanup),
		notifier: opts.Notifier,
		observer: opts.Observer,
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// RequestRender implements Requester. The replacing request takes the
// submission position of the latest call.
func (s *Scheduler) RequestRender(r Request) {
	if r.Draw == nil {
		return
	}
	s.seq++
	s.pending[r.Key] = pending{Request: r, seq: s.seq}
}

// Cancel implements Requester.
func (s *Scheduler) Cancel(key string) {
	delete(s.pending, key)
	if c, ok := s.cleanups[key]; ok {
		delete(s.cleanups, key)
		s.orphans = append(s.orphans, orphan{key: key, cleanup: c})
	}
}

// Checkpoint captures the render work held for key and returns a function
// that puts it back. Requests and cancellations for key made after the
// checkpoint are undone; other keys are untouched.
func (s *Scheduler) Checkpoint(key string) (rollback func()) {
	p, hadPending := s.pending[key]
	c, hadCleanup := s.cleanups[key]
	mark := len(s.orphans)
	return func() {
		if hadPending {
			s.pending[key] = p
		} else {
			delete(s.pending, key)
		}
		if hadCleanup {
			s.cleanups[key] = c
		}
		if mark > len(s.orphans) {
			return
		}
		kept := s.orphans[:mark]
		for _, o := range s.orphans[mark:] {
			if o.key != key {
				kept = append(kept, o)
			}
		}
		s.orphans = kept
	}
}

// Pending returns the number of queued requests.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Idle reports whether a flush would do nothing.
func (s *Scheduler) Idle() bool { return len(s.pending) == 0 && len(s.orphans) == 0 }

// FlushResult summarizes one flush.
type FlushResult struct {
	Drawn  []string
	Failed []string
}

// Flush runs the cleanups of cancelled keys, then every queued request in
// priority order. Requests submitted while flushing wait for the next
// flush.
func (s *Scheduler) Flush(ctx context.Context, surf surface.Surface) FlushResult {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	orphans := s.orphans
	s.orphans = nil
	for _, o := range orphans {
		if err := runCleanup(o.cleanup, surf); err != nil {
			logger.Warn("Cleanup of cancelled render failed.", "key", o.key, "error", err)
		}
	}

	queue := slices.SortedFunc(maps.Values(s.pending), func(a, b pending) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.seq, b.seq))
	})
	s.pending = make(map[string]pending)

	var res FlushResult
	for _, req := range queue {
		if prev, ok := s.cleanups[req.Key]; ok {
			delete(s.cleanups, req.Key)
			if err := runCleanup(prev, surf); err != nil {
				logger.Warn("Cleanup before redraw failed.", "key", req.Key, "error", err)
			}
		}

		cleanup, err := runDraw(ctx, req.Draw, surf)
		s.observer.Drawn(req.Priority, err)
		if err != nil {
			logger.Error("Draw failed.", "key", req.Key, "priority", req.Priority, "error", err)
			res.Failed = append(res.Failed, req.Key)
			s.notify(comms.Failed(req.Key, err))
			continue
		}
		if cleanup != nil {
			s.cleanups[req.Key] = cleanup
		}
		res.Drawn = append(res.Drawn, req.Key)
		s.notify(comms.Rendered(req.Key))
	}

	s.observer.Flushed(len(queue), time.Since(start))
	if len(queue) > 0 {
		logger.Debug("Flushed render queue.", "drawn", len(res.Drawn), "failed", len(res.Failed))
	}
	return res
}

func (s *Scheduler) notify(n comms.Notification) {
	if s.notifier != nil {
		s.notifier.Send(n)
	}
}

func runDraw(ctx context.Context, draw DrawFunc, surf surface.Surface) (cleanup Cleanup, err error) {
	defer func() {
		if r := recover(); r != nil {
			cleanup = nil
			err = fmt.Errorf("%w: %v", ErrDrawPanic, r)
		}
	}()
	return draw(ctx, surf)
}

func runCleanup(c Cleanup, surf surface.Surface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDrawPanic, r)
		}
	}()
	c(surf)
	return nil
}
