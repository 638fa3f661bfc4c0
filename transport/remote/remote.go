package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmora/condarun"
)

// Transport executes commands as HTTP requests against the API root.
type Transport struct {
	mode     Mode
	root     string
	client   *http.Client
	streamer condarun.Transport
	logger   *slog.Logger
}

// Compile-time interface satisfaction check.
var _ condarun.Transport = (*Transport)(nil)

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithHTTPClient overrides http.DefaultClient. nil is ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithStreamer hands commands that ask for progress to s, typically a
// socket transport. Without a streamer they are sent as plain requests
// and report no progress.
func WithStreamer(s condarun.Transport) Option {
	return func(t *Transport) {
		t.streamer = s
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

// New creates an HTTP transport. apiRoot is the absolute URL of the API
// root, e.g. "http://localhost:8080/api". An unknown mode is an
// UnsupportedConfiguration error.
func New(apiRoot string, mode Mode, opts ...Option) (*Transport, error) {
	if mode != Uniform && mode != Resource {
		return nil, unsupportedMode(mode.String())
	}
	u, err := url.Parse(apiRoot)
	if err != nil {
		return nil, fmt.Errorf("remote: API root: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: API root %q: scheme must be http or https", apiRoot)
	}
	t := &Transport{
		mode:   mode,
		root:   strings.TrimSuffix(u.String(), "/"),
		client: http.DefaultClient,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Mode returns the configured API style.
func (t *Transport) Mode() Mode { return t.mode }

// Execute routes cmd and sends it. Routing errors (ValidationFailure) are
// returned synchronously, also for commands handed to the streamer; HTTP
// and decoding failures reject the Future.
// ctx bounds the request.
func (t *Transport) Execute(ctx context.Context, cmd condarun.Command, progress ...condarun.ProgressFunc) (*condarun.Future[json.RawMessage], error) {
	// Routing rules apply to every command, streamed or not.
	route, err := Select(t.mode, cmd)
	if err != nil {
		return nil, err
	}
	if cmd.WantsProgress() && t.streamer != nil {
		return t.streamer.Execute(ctx, cmd, progress...)
	}

	req, err := t.newRequest(ctx, route)
	if err != nil {
		return nil, &condarun.Error{Kind: condarun.KindValidationFailure, Op: cmd.Name(), Message: "build request", Err: err}
	}

	log := t.logger.With("command", cmd.Name(), "method", route.Method, "url", req.URL.String())
	log.DebugContext(ctx, "remote: request")

	fut, res := condarun.NewFuture[json.RawMessage](progress...)
	go func() {
		v, err := t.do(req, cmd.Name())
		if err != nil {
			log.WarnContext(ctx, "remote: request failed", "error", err)
			res.Reject(err)
			return
		}
		res.Fulfill(v)
	}()
	return fut, nil
}

func (t *Transport) newRequest(ctx context.Context, route Route) (*http.Request, error) {
	target := t.root + route.Path
	if len(route.Query) > 0 {
		target += "?" + route.Query.Encode()
	}

	var body io.Reader
	if route.Body != nil {
		data, err := json.Marshal(route.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do performs req and decodes the single JSON document in the response.
func (t *Transport) do(req *http.Request, op string) (json.RawMessage, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &condarun.Error{Kind: condarun.KindTransportFailure, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &condarun.Error{Kind: condarun.KindTransportFailure, Op: op, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &condarun.Error{
			Kind:    condarun.KindTransportFailure,
			Op:      op,
			Message: "unexpected status " + resp.Status,
			Raw:     string(data),
		}
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, condarun.DecodeError(op, string(data), err)
	}
	return json.RawMessage(bytes.TrimSpace(data)), nil
}
