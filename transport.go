package condarun

import (
	"context"
	"encoding/json"
)

// Transport executes commands over one physical protocol.
//
// Implementations include the local process transport (transport/local),
// the HTTP transports (transport/remote) and the WebSocket progress transport
// (transport/socket). A client picks one Transport at construction time and
// uses it for every call.
type Transport interface {
	// Execute dispatches cmd and returns a Future for its result.
	//
	// progress callbacks are registered on the Future before anything can
	// be emitted, so they receive every progress payload of the command.
	// Callbacks added later with OnProgress only see later payloads.
	//
	// The returned error is non-nil only for failures detected before
	// dispatch (ValidationFailure). Everything after dispatch, including
	// failure to start the executable, rejects the Future instead.
	//
	// ctx bounds the dispatch itself (dialing, sending the request). It does
	// not cancel work already running on the other side: a spawned process
	// runs to completion even if ctx is cancelled.
	Execute(ctx context.Context, cmd Command, progress ...ProgressFunc) (*Future[json.RawMessage], error)
}
