package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vk/aether/internal/codec"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ClientOptions configures Dial.
type ClientOptions struct {
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds the initial handshake. Zero means 15s.
	ConnectTimeout time.Duration
}

// Client pushes commands to a running engine and receives its
// notifications.
type Client struct {
	io     *socket.Socket
	logger *slog.Logger

	notifications *comms.Pipe[comms.Notification]
	synced        chan int
}

// Dial connects to the engine at rawURL over the websocket transport.
func Dial(ctx context.Context, rawURL string, o ClientOptions) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "transport", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	c := &Client{
		io:            io,
		logger:        logger,
		notifications: comms.NewPipe[comms.Notification](),
		synced:        make(chan int, 1),
	}

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to engine", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})
	io.On(types.EventName(eventNotification), func(args ...any) {
		for _, arg := range args {
			n, err := decodeNotification(arg)
			if err != nil {
				logger.Warn("Dropping malformed notification.", "error", err)
				continue
			}
			c.notifications.Send(n)
		}
	})
	io.On(types.EventName(eventSynced), func(args ...any) {
		if len(args) == 0 {
			return
		}
		n, err := count(args[0])
		if err != nil {
			logger.Warn("Dropping malformed sync reply.", "error", err)
			return
		}
		select {
		case c.synced <- n:
		default:
		}
	})

	timeout := o.ConnectTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	io.Connect()
	select {
	case err := <-connectChan:
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		c.Close()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Send emits one command.
func (c *Client) Send(cmd comms.Command) error {
	data, err := codec.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	c.io.Emit(eventCommand, data)
	return nil
}

// Sync asks the server how many commands it has forwarded for this
// connection and waits for the reply.
func (c *Client) Sync(ctx context.Context) (int, error) {
	c.io.Emit(eventSync)
	select {
	case n := <-c.synced:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Notifications delivers the engine's notifications in arrival order.
func (c *Client) Notifications() <-chan comms.Notification {
	return c.notifications.Recv()
}

// Close disconnects and stops notification delivery.
func (c *Client) Close() {
	c.io.Disconnect()
	c.notifications.Stop()
}
