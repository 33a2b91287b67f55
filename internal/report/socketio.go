package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/gmtrain/internal/ctxlog"
)

// DefaultProgressEvent is the socket.io event name used for progress.
const DefaultProgressEvent = "progress"

// SocketIOOptions configure the socket.io reporter.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// SocketIO emits progress events to a socket.io server, for live dashboards.
type SocketIO struct {
	client *socket.Socket
	event  string
	logger *slog.Logger
}

// DialSocketIO connects and waits until the server accepts the connection.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", opts.URL)
	logger.Info("Connecting progress reporter...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q needs a scheme and host", opts.URL)
	}
	if opts.Event == "" {
		opts.Event = DefaultProgressEvent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress reporter connected", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})

	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Progress reporter connection failed.", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{client: io, event: opts.Event, logger: logger}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(opts.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", opts.Timeout)
	}
}

func (s *SocketIO) Report(_ context.Context, ev Event) error {
	s.logger.Debug("Emitting progress event", "event", s.event, "epoch", ev.Epoch)
	s.client.Emit(s.event, ev.Fields())
	return nil
}

func (s *SocketIO) Close() error {
	s.logger.Info("Disconnecting progress reporter", "sid", s.client.Id())
	s.client.Disconnect()
	return nil
}
