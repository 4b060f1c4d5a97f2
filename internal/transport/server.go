package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/vk/aether/internal/codec"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	sio "github.com/zishang520/socket.io/v2/socket"
)

// Server is the engine side of the transport.
type Server struct {
	io       *sio.Server
	opts     *sio.ServerOptions
	commands comms.Sender[comms.Command]
	logger   *slog.Logger

	received atomic.Int64
	rejected atomic.Int64
}

// NewServer creates a socket.io server that forwards commands to commands.
func NewServer(ctx context.Context, commands comms.Sender[comms.Command]) *Server {
	opts := sio.DefaultServerOptions()
	s := &Server{
		io:       sio.NewServer(nil, opts),
		opts:     opts,
		commands: commands,
		logger:   ctxlog.FromContext(ctx).With("component", "transport"),
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*sio.Socket)
		if !ok {
			return
		}
		s.accept(client)
	})
	return s
}

func (s *Server) accept(client *sio.Socket) {
	logger := s.logger.With("sid", client.Id())
	logger.Info("UI connected")

	var delivered atomic.Int64
	client.On(eventCommand, func(args ...any) {
		for _, arg := range args {
			ok, err := s.deliver(arg)
			if err != nil {
				s.rejected.Add(1)
				logger.Warn("Rejected command payload.", "error", err)
				s.reply(client, comms.Failed("", err))
				continue
			}
			if !ok {
				logger.Warn("Engine is closed, dropping commands.")
				return
			}
			s.received.Add(1)
			delivered.Add(1)
		}
	})
	client.On(eventSync, func(...any) {
		client.Emit(eventSynced, delivered.Load())
	})
	client.On("disconnect", func(reason ...any) {
		logger.Info("UI disconnected", "reason", reason, "commands", delivered.Load())
	})
}

// deliver decodes one payload and hands it to the engine. A panic while
// decoding is reported as a payload error.
func (s *Server) deliver(arg any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("command handler panicked: %v", r)
		}
	}()
	cmd, err := decodeCommand(arg)
	if err != nil {
		return false, err
	}
	return s.commands.Send(cmd), nil
}

func (s *Server) reply(client *sio.Socket, n comms.Notification) {
	data, err := codec.EncodeNotification(n)
	if err != nil {
		s.logger.Error("Failed to encode notification.", "error", err)
		return
	}
	client.Emit(eventNotification, data)
}

// Handler serves the socket.io endpoint. Mount it at /socket.io/.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(s.opts)
}

// Send broadcasts a notification to every connected UI. It implements
// comms.Sender so the server can sit directly behind the engine.
func (s *Server) Send(n comms.Notification) bool {
	data, err := codec.EncodeNotification(n)
	if err != nil {
		s.logger.Error("Failed to encode notification.", "error", err)
		return false
	}
	s.io.Emit(eventNotification, data)
	return true
}

// Forward broadcasts notifications from in until it is closed or ctx ends.
func (s *Server) Forward(ctx context.Context, in <-chan comms.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-in:
			if !ok {
				return nil
			}
			s.Send(n)
		}
	}
}

// Received returns the number of commands forwarded to the engine.
func (s *Server) Received() int64 { return s.received.Load() }

// Rejected returns the number of payloads that failed to decode.
func (s *Server) Rejected() int64 { return s.rejected.Load() }

// Close disconnects every client.
func (s *Server) Close() {
	s.io.Close(nil)
}
