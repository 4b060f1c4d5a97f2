package app

import (
	"log/slog"
	"time"

	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/surface"
)

// schedulerObservers fans scheduler events out to several observers.
type schedulerObservers []scheduler.Observer

func (o schedulerObservers) Drawn(p scheduler.Priority, err error) {
	for _, ob := range o {
		ob.Drawn(p, err)
	}
}

func (o schedulerObservers) Flushed(requests int, elapsed time.Duration) {
	for _, ob := range o {
		ob.Flushed(requests, elapsed)
	}
}

// frameLog logs the digest of every frame and clears the recorder, so a
// long-running server does not accumulate operations.
type frameLog struct {
	rec    *surface.Recorder
	logger *slog.Logger
}

func (f *frameLog) Drawn(scheduler.Priority, error) {}

func (f *frameLog) Flushed(requests int, elapsed time.Duration) {
	digest, err := f.rec.Digest()
	if err != nil {
		f.logger.Warn("Failed to digest frame.", "error", err)
	} else {
		f.logger.Debug("Frame drawn.", "requests", requests, "ops", len(f.rec.Ops()), "digest", digest.String(), "elapsed", elapsed)
	}
	f.rec.Reset()
}
