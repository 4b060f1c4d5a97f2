package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/aether/internal/app"
	"github.com/vk/aether/internal/cli"
)

// main is the entrypoint for the aether application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on manifest and registry errors, so we recover here to
	// provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aetherApp := app.NewApp(outW, inv.Config)

	switch inv.Command {
	case cli.Serve:
		return aetherApp.Serve(ctx)
	case cli.Run:
		report, err := aetherApp.RunScene(ctx, inv.Target)
		if err != nil {
			return err
		}
		report.Print(outW)
	case cli.Replay:
		report, err := aetherApp.Replay(ctx, inv.Target)
		if err != nil {
			return err
		}
		report.Print(outW)
	case cli.Send:
		n, err := aetherApp.Send(ctx, inv.Addr, inv.Target)
		if err != nil {
			return err
		}
		fmt.Fprintf(outW, "sent %d commands\n", n)
	}
	return nil
}
