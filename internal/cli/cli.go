package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/aether/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Command is an aether subcommand.
type Command string

const (
	Serve  Command = "serve"
	Run    Command = "run"
	Send   Command = "send"
	Replay Command = "replay"
)

// Invocation is a parsed command line.
type Invocation struct {
	Command Command
	Config  *app.Config
	// Target is the scene (run, send) or journal (replay) argument.
	Target string
	// Addr is the server URL for send.
	Addr string
}

const usage = `
Aether - a reactive scene-graph engine driven by path-addressed commands.

Usage:
  aether <command> [options] [ARG]

Commands:
  serve           Run the engine behind a socket.io server.
  run SCENE       Apply a scene headlessly, flush once and print the result.
  send SCENE      Push a scene to a running server.
  replay JOURNAL  Replay a recorded journal headlessly.

Run 'aether <command> -h' for the options of a command.
`

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}

	cmd := Command(args[0])
	switch cmd {
	case Serve, Run, Send, Replay:
	default:
		fmt.Fprint(output, usage)
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", args[0])}
	}

	flagSet := pflag.NewFlagSet("aether "+string(cmd), pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprintf(output, "\nUsage:\n  aether %s [options]%s\n\nOptions:\n", cmd, argName(cmd))
		flagSet.PrintDefaults()
	}

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	modulesPathFlag := flagSet.String("modules-path", "", "Directory with additional node type manifests.")
	modeFlag := flagSet.String("mode", "dev", "Hook failure handling. 'dev' reports them, 'prod' logs and skips them.")
	widthFlag := flagSet.Int("width", 800, "Surface width in pixels.")
	heightFlag := flagSet.Int("height", 600, "Surface height in pixels.")
	journalFlag := flagSet.String("journal", "", "Record every inbound command to this file.")

	var (
		listenFlag, sceneFlag, addrFlag *string
		healthPortFlag, fpsFlag         *int
	)
	switch cmd {
	case Serve:
		listenFlag = flagSet.StringP("listen", "l", ":8080", "Address the socket.io server listens on.")
		sceneFlag = flagSet.String("scene", "", "Scene applied before accepting UI commands.")
		healthPortFlag = flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
		fpsFlag = flagSet.Int("fps", 60, "Frame rate of the render loop.")
	case Send:
		addrFlag = flagSet.StringP("addr", "a", "http://localhost:8080", "URL of the running server.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	inv := &Invocation{Command: cmd}
	switch cmd {
	case Serve:
		if flagSet.NArg() > 0 {
			return nil, false, &ExitError{Code: 2, Message: "serve takes no arguments"}
		}
	default:
		if flagSet.NArg() != 1 {
			flagSet.Usage()
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s requires exactly one argument:%s", cmd, argName(cmd))}
		}
		inv.Target = flagSet.Arg(0)
	}
	if addrFlag != nil {
		inv.Addr = *addrFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg := app.Config{
		ModulesPath: *modulesPathFlag,
		JournalPath: *journalFlag,
		Mode:        strings.ToLower(*modeFlag),
		Width:       *widthFlag,
		Height:      *heightFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	}
	if cmd == Serve {
		cfg.ListenAddr = *listenFlag
		cfg.ScenePath = *sceneFlag
		cfg.HealthcheckPort = *healthPortFlag
		cfg.FPS = *fpsFlag
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	inv.Config = config

	slog.Debug("CLI parser finished successfully.", "command", cmd, "config", config)
	return inv, false, nil
}

func argName(cmd Command) string {
	switch cmd {
	case Run, Send:
		return " SCENE"
	case Replay:
		return " JOURNAL"
	default:
		return ""
	}
}
