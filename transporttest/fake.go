package transporttest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/dmora/condarun"
)

// Reply scripts the outcome of one Execute call.
type Reply struct {
	// Progress payloads are delivered in order before settlement.
	Progress []json.RawMessage

	// Result fulfills the Future when Err is nil.
	Result json.RawMessage

	// Err rejects the Future.
	Err error

	// SyncErr is returned from Execute itself, with no Future.
	SyncErr error
}

// Handler produces the Reply for a command.
type Handler func(cmd condarun.Command) Reply

// JSON returns a Reply fulfilled with doc. It panics if doc is not valid
// JSON, which is always a bug in the test.
func JSON(doc string) Reply {
	if !json.Valid([]byte(doc)) {
		panic(fmt.Sprintf("transporttest: invalid JSON reply %q", doc))
	}
	return Reply{Result: json.RawMessage(doc)}
}

// Fake is a scripted condarun.Transport. Replies are looked up by command
// name; unscripted commands reject with a TransportFailure.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []condarun.Command
}

// Compile-time interface satisfaction check.
var _ condarun.Transport = (*Fake)(nil)

// NewFake returns a Fake with no scripted replies.
func NewFake() *Fake {
	return &Fake{handlers: make(map[string]Handler)}
}

// On scripts the handler for commands named name and returns f.
func (f *Fake) On(name string, h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	return f
}

// Reply scripts a fixed reply for commands named name and returns f.
func (f *Fake) Reply(name string, r Reply) *Fake {
	return f.On(name, func(condarun.Command) Reply { return r })
}

// Calls returns the executed commands in order.
func (f *Fake) Calls() []condarun.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Last returns the most recent command. ok is false when nothing ran.
func (f *Fake) Last() (cmd condarun.Command, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return condarun.Command{}, false
	}
	return f.calls[len(f.calls)-1], true
}

// Execute records cmd and plays back its scripted Reply on a new goroutine.
// progress callbacks receive every scripted progress payload.
func (f *Fake) Execute(_ context.Context, cmd condarun.Command, progress ...condarun.ProgressFunc) (*condarun.Future[json.RawMessage], error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h, ok := f.handlers[cmd.Name()]
	f.mu.Unlock()

	if !ok {
		return condarun.Rejected[json.RawMessage](&condarun.Error{
			Kind:    condarun.KindTransportFailure,
			Op:      cmd.Name(),
			Message: "no reply scripted",
		}), nil
	}

	r := h(cmd)
	if r.SyncErr != nil {
		return nil, r.SyncErr
	}

	fut, res := condarun.NewFuture[json.RawMessage](progress...)
	go func() {
		for _, p := range r.Progress {
			res.Progress(p)
		}
		if r.Err != nil {
			res.Reject(r.Err)
			return
		}
		res.Fulfill(r.Result)
	}()
	return fut, nil
}
