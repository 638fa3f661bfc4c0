// Package filter provides composable channel middleware for progress
// streams. Consumers turn a command's progress into a channel with Stream
// and wrap it with these functions to select the payloads they need.
package filter

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/internal/jsonutil"
)

// Compile-time check that Send fits a progress callback.
var _ condarun.ProgressFunc = (*Stream)(nil).Send

// Stream turns progress callbacks into a channel. Pass Send as a progress
// callback when dispatching, then read from Until:
//
//	s := filter.NewStream(ctx)
//	fut, err := t.Execute(ctx, cmd, s.Send)
//	...
//	for p := range s.Until(fut.Done()) { ... }
//
// Payloads are sent from the producer's goroutine, so a consumer that stops
// reading stalls the operation; cancel ctx to have further payloads
// dropped instead.
type Stream struct {
	ctx  context.Context
	out  chan json.RawMessage
	once sync.Once
}

// NewStream returns a Stream whose sends give up once ctx is done.
func NewStream(ctx context.Context) *Stream {
	return &Stream{ctx: ctx, out: make(chan json.RawMessage)}
}

// Send delivers p to the channel. It is a condarun.ProgressFunc.
func (s *Stream) Send(p json.RawMessage) {
	trySend(s.ctx, s.out, p)
}

// Until returns the channel, closing it once done is closed. done is
// normally the Done channel of the Future Send was registered on; no
// progress callback runs after it closes. Later calls return the same
// channel and ignore their argument.
func (s *Stream) Until(done <-chan struct{}) <-chan json.RawMessage {
	s.once.Do(func() {
		go func() {
			<-done
			close(s.out)
		}()
	})
	return s.out
}

// Filter returns a channel that only passes payloads accepted by keep.
// Spawns a goroutine that exits when ctx is cancelled or ch is closed.
// The returned channel is closed when the goroutine exits.
func Filter(ctx context.Context, ch <-chan json.RawMessage, keep func(json.RawMessage) bool) <-chan json.RawMessage {
	return pipe(ctx, ch, keep)
}

// Fetches returns a channel that passes only download updates: objects
// carrying a "fetch" field.
func Fetches(ctx context.Context, ch <-chan json.RawMessage) <-chan json.RawMessage {
	return pipe(ctx, ch, IsFetch)
}

// SkipPhaseEnds returns a channel that drops the markers closing a
// progress phase.
func SkipPhaseEnds(ctx context.Context, ch <-chan json.RawMessage) <-chan json.RawMessage {
	return pipe(ctx, ch, func(p json.RawMessage) bool {
		return !IsPhaseEnd(p)
	})
}

// IsFetch reports whether p is a download update.
func IsFetch(p json.RawMessage) bool {
	_, ok := jsonutil.Object(p)["fetch"]
	return ok
}

// IsPhaseEnd reports whether p closes a progress phase, i.e. is an object
// whose "finished" field is true.
func IsPhaseEnd(p json.RawMessage) bool {
	return jsonutil.IsFinished(p)
}

// pipe spawns a goroutine that reads from ch, passes payloads matching
// the predicate to the returned channel, and closes it when ch closes
// or ctx is cancelled. Callers must either drain the returned channel
// or cancel ctx to avoid goroutine leaks.
func pipe(ctx context.Context, ch <-chan json.RawMessage, accept func(json.RawMessage) bool) <-chan json.RawMessage {
	out := make(chan json.RawMessage)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-ch:
				if !ok {
					return
				}
				if accept(p) && !trySend(ctx, out, p) {
					return
				}
			}
		}
	}()
	return out
}

// trySend sends p on out, returning true on success.
// Returns false if ctx is cancelled before the send completes.
func trySend(ctx context.Context, out chan<- json.RawMessage, p json.RawMessage) bool {
	select {
	case out <- p:
		return true
	case <-ctx.Done():
		return false
	}
}
