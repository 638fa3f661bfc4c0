package condarun

import (
	"context"
	"encoding/json"
	"sync"
)

// ProgressFunc receives one progress payload.
type ProgressFunc func(payload json.RawMessage)

// Future is a deferred result with a side channel for progress payloads.
//
// Progress callbacks run synchronously on the producer's goroutine, in
// registration order. A callback registered late does not see payloads
// emitted before it was registered, and no callback runs once the Future
// has settled. Callers that need every payload pass their callbacks at
// dispatch (see Transport.Execute), which registers them before the
// producer starts. Callbacks must not block for long: they hold up the
// producer, and with it the delivery of later frames.
type Future[T any] struct {
	mu        sync.Mutex
	callbacks []ProgressFunc
	settled   bool

	// source, when set, owns the progress channel this Future exposes.
	source progressSource

	done  chan struct{}
	value T
	err   error
}

type progressSource interface {
	addProgress(fn ProgressFunc)
}

// Resolver is the producer side of a Future. Its methods are meant to be
// called from a single producer goroutine, which is what orders progress
// delivery before settlement.
type Resolver[T any] struct {
	f *Future[T]
}

// NewFuture returns a pending Future and the Resolver that settles it.
// progress callbacks are registered before the Future is returned, so they
// see every payload the Resolver emits. nil callbacks are skipped.
func NewFuture[T any](progress ...ProgressFunc) (*Future[T], *Resolver[T]) {
	f := &Future[T]{done: make(chan struct{})}
	for _, fn := range progress {
		if fn != nil {
			f.callbacks = append(f.callbacks, fn)
		}
	}
	return f, &Resolver[T]{f: f}
}

// Rejected returns a Future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f, r := NewFuture[T]()
	r.Reject(err)
	return f
}

// OnProgress registers fn for subsequent progress payloads and returns f
// for chaining. Registering on a settled Future is a no-op.
func (f *Future[T]) OnProgress(fn ProgressFunc) *Future[T] {
	if fn == nil {
		return f
	}
	if f.source != nil {
		f.source.addProgress(fn)
		return f
	}
	f.addProgress(fn)
	return f
}

func (f *Future[T]) addProgress(fn ProgressFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return
	}
	f.callbacks = append(f.callbacks, fn)
}

// Done returns a channel that is closed once the Future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the Future settles or ctx is done. A cancelled ctx
// only abandons the wait; the underlying operation keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled value without blocking. ok is false while
// the Future is pending.
func (f *Future[T]) Result() (value T, err error, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Progress delivers payload to every registered callback, in order.
// It is a no-op once the Future has settled.
func (r *Resolver[T]) Progress(payload json.RawMessage) {
	f := r.f
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	callbacks := f.callbacks[:len(f.callbacks):len(f.callbacks)]
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(payload)
	}
}

// Fulfill settles the Future with value. Returns false if it had already
// settled.
func (r *Resolver[T]) Fulfill(value T) bool {
	return r.settle(value, nil)
}

// Reject settles the Future with err. Returns false if it had already
// settled.
func (r *Resolver[T]) Reject(err error) bool {
	var zero T
	return r.settle(zero, err)
}

func (r *Resolver[T]) settle(value T, err error) bool {
	f := r.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settled {
		return false
	}
	f.settled = true
	f.callbacks = nil
	f.value = value
	f.err = err
	close(f.done)
	return true
}

// Then derives a Future holding fn applied to f's value. Rejections pass
// through untouched. The derived Future has no progress channel of its
// own: OnProgress on it never fires. Use ThenWithProgress to keep it.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out, r := NewFuture[U]()
	go chain(f, r, fn)
	return out
}

// ThenWithProgress is Then, but the derived Future re-exposes f's progress
// channel: callbacks registered on it receive f's progress payloads.
func ThenWithProgress[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out, r := NewFuture[U]()
	out.source = f.progressOwner()
	go chain(f, r, fn)
	return out
}

func (f *Future[T]) progressOwner() progressSource {
	if f.source != nil {
		return f.source
	}
	return f
}

func chain[T, U any](f *Future[T], r *Resolver[U], fn func(T) (U, error)) {
	<-f.done
	if f.err != nil {
		r.Reject(f.err)
		return
	}
	v, err := fn(f.value)
	if err != nil {
		r.Reject(err)
		return
	}
	r.Fulfill(v)
}
