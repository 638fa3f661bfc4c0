package filter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dmora/condarun"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func fill(ch chan<- json.RawMessage, payloads ...string) {
	for _, p := range payloads {
		ch <- raw(p)
	}
	close(ch)
}

func drain(ch <-chan json.RawMessage) []string {
	var out []string
	for p := range ch {
		out = append(out, string(p))
	}
	return out
}

// --- Stream tests ---

func TestStream_DeliversUntilSettled(t *testing.T) {
	s := NewStream(context.Background())
	fut, res := condarun.NewFuture[json.RawMessage](s.Send)
	ch := s.Until(fut.Done())

	go func() {
		res.Progress(raw(`{"fetch":"numpy","progress":0.5}`))
		res.Progress(raw(`{"finished":true}`))
		res.Fulfill(raw(`{"success":true}`))
	}()

	got := drain(ch)
	if len(got) != 2 {
		t.Fatalf("got %d payloads, want 2: %v", len(got), got)
	}
	if got[1] != `{"finished":true}` {
		t.Errorf("got[1] = %s, want the phase end marker", got[1])
	}
}

func TestStream_SettledFutureClosesImmediately(t *testing.T) {
	s := NewStream(context.Background())
	fut := condarun.Rejected[json.RawMessage](condarun.ValidationError("install", "bad"))
	if got := drain(s.Until(fut.Done())); len(got) != 0 {
		t.Errorf("got %v, want nothing", got)
	}
}

func TestStream_UntilTwiceSameChannel(t *testing.T) {
	s := NewStream(context.Background())
	done := make(chan struct{})
	first := s.Until(done)
	second := s.Until(make(chan struct{}))
	if first != second {
		t.Error("Until must return the same channel")
	}
	close(done)
	drain(first)
}

func TestStream_CancelledContextDropsPayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStream(ctx)
	fut, res := condarun.NewFuture[json.RawMessage](s.Send)
	ch := s.Until(fut.Done())
	cancel()

	// Nobody reads ch: the producer must not block.
	res.Progress(raw(`{"fetch":"numpy"}`))
	res.Fulfill(raw(`{}`))
	drain(ch)
}

// --- Filter tests ---

func TestFetches(t *testing.T) {
	in := make(chan json.RawMessage, 4)
	go fill(in,
		`{"fetch":"numpy","progress":0.1}`,
		`{"finished":true}`,
		`"plain string"`,
		`{"fetch":"scipy","progress":1}`,
	)

	got := drain(Fetches(context.Background(), in))
	want := []string{`{"fetch":"numpy","progress":0.1}`, `{"fetch":"scipy","progress":1}`}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSkipPhaseEnds(t *testing.T) {
	in := make(chan json.RawMessage, 4)
	go fill(in,
		`{"fetch":"numpy"}`,
		`{"finished":true}`,
		`{"finished":false}`,
		`{"link":"numpy"}`,
	)

	got := drain(SkipPhaseEnds(context.Background(), in))
	if len(got) != 3 {
		t.Fatalf("got %d payloads, want 3: %v", len(got), got)
	}
	for _, p := range got {
		if p == `{"finished":true}` {
			t.Error("phase end marker must be dropped")
		}
	}
}

func TestFilter_Predicate(t *testing.T) {
	in := make(chan json.RawMessage, 3)
	go fill(in, `1`, `2`, `3`)

	out := Filter(context.Background(), in, func(p json.RawMessage) bool { return string(p) != "2" })
	got := drain(out)
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("got %v, want [1 3]", got)
	}
}

func TestFilter_ContextCancellation(_ *testing.T) {
	in := make(chan json.RawMessage)
	ctx, cancel := context.WithCancel(context.Background())
	out := Fetches(ctx, in)

	cancel()

	// Output channel should close after ctx cancel.
	drain(out)
}

func TestIsFetchAndIsPhaseEnd(t *testing.T) {
	tests := []struct {
		payload  string
		fetch    bool
		phaseEnd bool
	}{
		{`{"fetch":"numpy"}`, true, false},
		{`{"finished":true}`, false, true},
		{`{"finished":"yes"}`, false, false},
		{`[]`, false, false},
		{`not json`, false, false},
	}
	for _, tt := range tests {
		if got := IsFetch(raw(tt.payload)); got != tt.fetch {
			t.Errorf("IsFetch(%s) = %v, want %v", tt.payload, got, tt.fetch)
		}
		if got := IsPhaseEnd(raw(tt.payload)); got != tt.phaseEnd {
			t.Errorf("IsPhaseEnd(%s) = %v, want %v", tt.payload, got, tt.phaseEnd)
		}
	}
}
