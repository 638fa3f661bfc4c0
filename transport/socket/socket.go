package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmora/condarun"
)

// closeTimeout bounds the close handshake sent after the finished frame.
const closeTimeout = time.Second

// Transport runs commands over a WebSocket endpoint, one connection per call.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
	logger *slog.Logger
}

// Compile-time interface satisfaction check.
var _ condarun.Transport = (*Transport)(nil)

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithDialer overrides websocket.DefaultDialer. nil is ignored.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *Transport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(t *Transport) {
		t.header = h.Clone()
	}
}

// WithLogger sets the logger. nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a socket transport for a ws:// or wss:// endpoint.
func New(endpoint string, opts ...Option) (*Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("socket: endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("socket: endpoint %q: scheme must be ws or wss", endpoint)
	}
	t := &Transport{
		url:    u.String(),
		dialer: websocket.DefaultDialer,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Execute dials the endpoint and sends cmd. Every command goes through the
// streaming protocol regardless of WantsProgress. ctx bounds the dial and
// the handshake; once connected, the stream runs until a finished frame
// or a connection failure.
func (t *Transport) Execute(ctx context.Context, cmd condarun.Command, progress ...condarun.ProgressFunc) (*condarun.Future[json.RawMessage], error) {
	log := t.logger.With("command", cmd.Name(), "url", t.url)
	fut, res := condarun.NewFuture[json.RawMessage](progress...)

	conn, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		log.WarnContext(ctx, "socket: dial failed", "error", err)
		res.Reject(transportError(cmd.Name(), "dial", err))
		return fut, nil
	}

	if err := conn.WriteJSON(newRequest(cmd)); err != nil {
		_ = conn.Close()
		res.Reject(transportError(cmd.Name(), "send request", err))
		return fut, nil
	}
	log.DebugContext(ctx, "socket: request sent")

	go t.receive(conn, cmd.Name(), res, log)
	return fut, nil
}

// receive reads frames until the finished frame or a connection failure.
func (t *Transport) receive(conn *websocket.Conn, op string, res *condarun.Resolver[json.RawMessage], log *slog.Logger) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = errors.New("connection closed before a finished frame")
			}
			log.Warn("socket: stream failed", "error", err)
			res.Reject(transportError(op, "receive", err))
			return
		}

		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn("socket: undecodable frame", "error", err)
			res.Reject(condarun.DecodeError(op, string(data), err))
			return
		}
		switch {
		case frame.Progress != nil:
			log.Debug("socket: progress", "payload", frame.Progress)
			res.Progress(frame.Progress)
		case frame.Finished != nil:
			res.Fulfill(frame.Finished)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeTimeout))
			return
		default:
			log.Debug("socket: ignoring frame", "frame", string(data))
		}
	}
}

func transportError(op, message string, err error) *condarun.Error {
	return &condarun.Error{Kind: condarun.KindTransportFailure, Op: op, Message: message, Err: err}
}
