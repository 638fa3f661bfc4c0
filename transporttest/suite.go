package transporttest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmora/condarun"
)

// settleTimeout bounds every wait in the suite.
const settleTimeout = 10 * time.Second

// RunTransportTests runs the compliance suite against transports built by
// factory. The backend behind each transport must answer every command
// with a JSON document, whether or not progress was requested.
// The factory is called once per subtest.
func RunTransportTests(t *testing.T, factory func(t *testing.T) condarun.Transport) {
	t.Helper()
	runSettlement(t, factory)
	runProgress(t, factory)
	runConcurrency(t, factory)
}

// runSettlement covers the plain request path.
func runSettlement(t *testing.T, factory func(t *testing.T) condarun.Transport) {
	t.Helper()

	t.Run("ResultIsJSON", func(t *testing.T) {
		v := mustSettle(t, factory(t), condarun.NewCommand("info", nil))
		if !json.Valid(v) {
			t.Errorf("result %q is not valid JSON", v)
		}
	})

	t.Run("NilOptions", func(t *testing.T) {
		mustSettle(t, factory(t), condarun.Command{})
	})

	t.Run("CancelledWaitLeavesFutureRunning", func(t *testing.T) {
		fut, err := factory(t).Execute(context.Background(), condarun.NewCommand("info", nil))
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := fut.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Wait(cancelled) error = %v, want context.Canceled", err)
		}
		wait(t, fut)
	})
}

// runProgress covers commands that ask for progress.
func runProgress(t *testing.T, factory func(t *testing.T) condarun.Transport) {
	t.Helper()

	t.Run("ProgressCommandSettles", func(t *testing.T) {
		cmd := progressInstall()

		var mu sync.Mutex
		settled := false
		check := func(p json.RawMessage) {
			mu.Lock()
			defer mu.Unlock()
			if settled {
				t.Error("progress delivered after settlement")
			}
			if !json.Valid(p) {
				t.Errorf("progress payload %q is not valid JSON", p)
			}
		}
		fut, err := factory(t).Execute(context.Background(), cmd, check)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		wait(t, fut)
		mu.Lock()
		settled = true
		mu.Unlock()
	})

	t.Run("DispatchCallbacksShareOrder", func(t *testing.T) {
		cmd := progressInstall()
		var first, second []string
		fut, err := factory(t).Execute(context.Background(), cmd,
			func(p json.RawMessage) { first = append(first, string(p)) },
			nil,
			func(p json.RawMessage) { second = append(second, string(p)) },
		)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		wait(t, fut)
		if len(first) != len(second) {
			t.Fatalf("callbacks saw %d and %d payloads", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("payload %d: %s vs %s", i, first[i], second[i])
			}
		}
	})

	t.Run("LateSubscriberIsNoop", func(t *testing.T) {
		fut, err := factory(t).Execute(context.Background(), progressInstall())
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		wait(t, fut)
		fut.OnProgress(func(json.RawMessage) {
			t.Error("callback registered after settlement must not fire")
		})
	})
}

// runConcurrency checks that in-flight commands do not share state.
func runConcurrency(t *testing.T, factory func(t *testing.T) condarun.Transport) {
	t.Helper()

	t.Run("ConcurrentCommands", func(t *testing.T) {
		tr := factory(t)
		const n = 4
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fut, err := tr.Execute(context.Background(), condarun.NewCommand("list", nil))
				if err != nil {
					t.Errorf("Execute: %v", err)
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
				defer cancel()
				if _, err := fut.Wait(ctx); err != nil {
					t.Errorf("Wait: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}

// progressInstall is a progress-requesting command every routing mode
// accepts: one package in an explicit environment.
func progressInstall() condarun.Command {
	return condarun.NewCommand("install",
		condarun.NewOptions().Set("quiet", false).Set("prefix", "/opt/envs/test"), "numpy")
}

func mustSettle(t *testing.T, tr condarun.Transport, cmd condarun.Command) json.RawMessage {
	t.Helper()
	fut, err := tr.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute(%q): %v", cmd.Name(), err)
	}
	v, err := wait(t, fut)
	if err != nil {
		t.Fatalf("Execute(%q) rejected: %v", cmd.Name(), err)
	}
	return v
}

func wait(t *testing.T, fut *condarun.Future[json.RawMessage]) (json.RawMessage, error) {
	t.Helper()
	select {
	case <-fut.Done():
	case <-time.After(settleTimeout):
		t.Fatal("future did not settle")
	}
	v, err, _ := fut.Result()
	return v, err
}
