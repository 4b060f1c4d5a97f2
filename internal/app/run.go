package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/engine"
	"github.com/vk/aether/internal/journal"
	"github.com/vk/aether/internal/scenefile"
	"github.com/vk/aether/internal/transport"
	"golang.org/x/sync/errgroup"
)

// Serve runs the engine behind the socket.io transport until ctx ends. The
// configured scene, if any, is applied before the first UI command.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Serve method started.")

	rec, closeJournal, err := a.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	var scene []comms.Command
	if a.config.ScenePath != "" {
		scene, err = a.loadScene(ctx, a.config.ScenePath)
		if err != nil {
			return err
		}
	}

	notes := comms.NewPipe[comms.Notification]()
	eng, _, err := a.newEngine(ctx, notes, rec, a.config.FPS, true)
	if err != nil {
		notes.Stop()
		return err
	}
	for _, c := range scene {
		eng.Commands().Send(c)
	}
	if a.config.ScenePath != "" {
		a.logger.Info("Scene queued.", "path", a.config.ScenePath, "commands", len(scene))
	}

	srv := transport.NewServer(ctx, eng.Commands())
	defer srv.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", srv.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer notes.Close()
		return eng.Run(gctx)
	})
	g.Go(func() error {
		return srv.Forward(gctx, notes.Recv())
	})
	g.Go(func() error {
		return serveUntilDone(gctx, a.logger, "transport", &http.Server{Addr: a.config.ListenAddr, Handler: mux})
	})
	if health := a.healthCheckServer(); health != nil {
		g.Go(func() error {
			return serveUntilDone(gctx, a.logger, "health", health)
		})
	}

	err = g.Wait()
	a.logger.Info("Server stopped.", "commands_received", srv.Received(), "commands_rejected", srv.Rejected())
	return err
}

// openJournal creates the configured journal. The returned close function
// is always safe to call.
func (a *App) openJournal() (engine.Recorder, func(), error) {
	if a.config.JournalPath == "" {
		return nil, func() {}, nil
	}
	w, err := journal.Create(a.config.JournalPath)
	if err != nil {
		return nil, nil, err
	}
	return w, func() {
		if err := w.Close(); err != nil {
			a.logger.Error("Failed to close journal.", "path", a.config.JournalPath, "error", err)
			return
		}
		a.logger.Info("Journal written.", "path", a.config.JournalPath, "commands", w.Count())
	}, nil
}

func (a *App) loadScene(ctx context.Context, paths ...string) ([]comms.Command, error) {
	model, err := scenefile.NewLoader().Load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	if len(model.Types) > 0 {
		return nil, errors.New("scene files cannot define node types; put them in a manifest")
	}
	return model.Commands()
}
