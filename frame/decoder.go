package frame

import (
	"encoding/json"
	"strings"

	"github.com/dmora/condarun"
	"github.com/dmora/condarun/internal/jsonutil"
)

// Delimiter separates concatenated progress documents.
const Delimiter = '\x00'

// Kind tags a Frame.
type Kind int

const (
	// Progress is an intermediate document.
	Progress Kind = iota + 1
	// Result is the final document, produced once the stream closes.
	Result
)

func (k Kind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Result:
		return "result"
	default:
		return "unknown"
	}
}

// Frame is one decoded JSON document.
type Frame struct {
	Kind    Kind
	Payload json.RawMessage
}

// Decoder turns a chunked text stream into frames. A Decoder serves a
// single invocation and is not safe for concurrent use.
type Decoder struct {
	op        string
	carry     strings.Builder
	streaming bool
}

// NewDecoder returns a Decoder. op names the command in decode errors.
func NewDecoder(op string) *Decoder {
	return &Decoder{op: op}
}

// Streaming reports whether the decoder is inside a progress phase.
func (d *Decoder) Streaming() bool { return d.streaming }

// Buffered returns the text carried over for the next document.
func (d *Decoder) Buffered() string { return d.carry.String() }

// Feed consumes one chunk and returns the progress frames it completes,
// in stream order.
//
// A chunk without a delimiter belongs to whatever document is pending and
// ends the current progress phase. A chunk with delimiters completes one
// document per delimiter; text after the last delimiter is carried over.
// Within a chunk, a document marked finished ends its phase; delimiters
// after it open the next phase.
func (d *Decoder) Feed(chunk string) ([]Frame, error) {
	if strings.IndexByte(chunk, Delimiter) < 0 {
		d.streaming = false
		d.carry.WriteString(chunk)
		return nil, nil
	}

	var frames []Frame
	rest := chunk
	for {
		end := strings.IndexByte(rest, Delimiter)
		if end < 0 {
			break
		}
		d.streaming = true
		d.carry.WriteString(rest[:end])
		rest = rest[end+1:]

		doc := strings.TrimSpace(d.carry.String())
		d.carry.Reset()
		if doc == "" {
			continue
		}
		if err := parse(doc); err != nil {
			return frames, condarun.DecodeError(d.op, doc, err)
		}
		frames = append(frames, Frame{Kind: Progress, Payload: json.RawMessage(doc)})
		if jsonutil.IsFinished([]byte(doc)) {
			d.streaming = false
		}
	}
	d.carry.WriteString(rest)
	return frames, nil
}

// Finish is called once the stream has closed. Whatever remains buffered
// is the final result document.
func (d *Decoder) Finish() (Frame, error) {
	raw := d.carry.String()
	d.carry.Reset()
	d.streaming = false

	doc := strings.TrimSpace(raw)
	if err := parse(doc); err != nil {
		return Frame{}, condarun.DecodeError(d.op, raw, err)
	}
	return Frame{Kind: Result, Payload: json.RawMessage(doc)}, nil
}

func parse(doc string) error {
	var v any
	return json.Unmarshal([]byte(doc), &v)
}
