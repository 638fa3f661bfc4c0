package local

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/frame"
)

// run pumps one subprocess's output into its Future.
type run struct {
	op        string
	proc      *subprocess
	res       *condarun.Resolver[json.RawMessage]
	log       *slog.Logger
	chunkSize int
}

// text returns standard output decoded as UTF-8. Invalid sequences become
// U+FFFD, and a rune split across reads is never split across chunks.
func (r *run) text() io.Reader {
	return unicode.UTF8.NewDecoder().Reader(r.proc.stdout)
}

// collect reads all output and parses it as one JSON document.
func (r *run) collect() {
	var out strings.Builder
	_, readErr := io.Copy(&out, r.text())
	r.wait()

	if readErr != nil {
		r.res.Reject(&condarun.Error{Kind: condarun.KindTransportFailure, Op: r.op, Message: "read output", Err: readErr})
		return
	}
	raw := out.String()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		r.logDecodeFailure(err)
		r.res.Reject(condarun.DecodeError(r.op, raw, err))
		return
	}
	r.res.Fulfill(json.RawMessage(strings.TrimSpace(raw)))
}

// streamFrames feeds output chunks to a frame decoder, delivering progress
// frames as they complete and the final document once output closes.
func (r *run) streamFrames() {
	dec := frame.NewDecoder(r.op)
	src := r.text()
	buf := make([]byte, r.chunkSize)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			frames, ferr := dec.Feed(string(buf[:n]))
			for _, f := range frames {
				r.log.Debug("local: progress", "payload", f.Payload)
				r.res.Progress(f.Payload)
			}
			if ferr != nil {
				// Drain so the subprocess is not blocked on a full pipe.
				_, _ = io.Copy(io.Discard, r.proc.stdout)
				r.wait()
				r.logDecodeFailure(ferr)
				r.res.Reject(ferr)
				return
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.wait()
			r.res.Reject(&condarun.Error{Kind: condarun.KindTransportFailure, Op: r.op, Message: "read output", Err: err})
			return
		}
	}
	r.wait()

	result, err := dec.Finish()
	if err != nil {
		r.logDecodeFailure(err)
		r.res.Reject(err)
		return
	}
	r.res.Fulfill(result.Payload)
}

// wait reaps the subprocess. The exit status is logged, not interpreted.
func (r *run) wait() {
	if err := r.proc.cmd.Wait(); err != nil {
		r.log.Debug("local: exit", "status", err)
	}
}

// logDecodeFailure must run after wait: stderr is written until then.
func (r *run) logDecodeFailure(err error) {
	r.log.Warn("local: undecodable output", "error", err, "stderr", r.proc.stderr.String())
}
