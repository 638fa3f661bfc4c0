package local

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/dmora/condarun"
)

// Transport runs commands by spawning the package manager executable.
// Each Execute call spawns its own subprocess; calls share no state.
type Transport struct {
	opts Options
}

// Compile-time interface satisfaction check.
var _ condarun.Transport = (*Transport)(nil)

// New creates a local process transport.
func New(opts ...Option) *Transport {
	return &Transport{opts: resolveOptions(opts...)}
}

// Executable returns the configured executable name.
func (t *Transport) Executable() string { return t.opts.Executable }

// Validate checks that the executable is available on PATH.
func (t *Transport) Validate() error {
	if _, err := exec.LookPath(t.opts.Executable); err != nil {
		return &condarun.Error{Kind: condarun.KindSpawnFailure, Op: "validate", Err: err}
	}
	return nil
}

// Execute spawns the executable for cmd. Failure to spawn rejects the
// returned Future before any output is read; the error return is always
// nil for this transport.
func (t *Transport) Execute(ctx context.Context, cmd condarun.Command, progressFns ...condarun.ProgressFunc) (*condarun.Future[json.RawMessage], error) {
	argv := Encode(cmd)
	progress := cmd.WantsProgress()
	log := t.opts.Logger.With("command", cmd.Name())
	log.DebugContext(ctx, "local: spawn", "executable", t.opts.Executable, "argv", argv, "progress", progress)

	fut, res := condarun.NewFuture[json.RawMessage](progressFns...)

	proc, err := t.spawn(argv)
	if err != nil {
		log.WarnContext(ctx, "local: spawn failed", "error", err)
		res.Reject(&condarun.Error{Kind: condarun.KindSpawnFailure, Op: cmd.Name(), Err: err})
		return fut, nil
	}

	r := &run{
		op:        cmd.Name(),
		proc:      proc,
		res:       res,
		log:       log,
		chunkSize: t.opts.ChunkSize,
	}
	if progress {
		go r.streamFrames()
	} else {
		go r.collect()
	}
	return fut, nil
}

// spawn resolves, configures and starts the executable.
func (t *Transport) spawn(argv []string) (*subprocess, error) {
	binary, err := exec.LookPath(t.opts.Executable)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(binary, argv...)
	cmd.Dir = t.opts.Dir
	cmd.Env = mergeEnv(os.Environ(), t.opts.Env)

	stderr := &tailBuffer{limit: defaultStderrCap}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &subprocess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// subprocess is a started command with its captured streams.
type subprocess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
}

// mergeEnv layers extra over base. nil extra returns nil, which makes the
// subprocess inherit the parent environment.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return nil
	}
	out := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := extra[key]; overridden {
			continue
		}
		out = append(out, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		out = append(out, k+"="+extra[k])
	}
	return out
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string { return string(b.buf) }
