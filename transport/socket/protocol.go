package socket

import (
	"encoding/json"

	"github.com/dmora/condarun"
)

// request is the single outbound frame.
type request struct {
	Subcommand string            `json:"subcommand"`
	Flags      *condarun.Options `json:"flags"`
	Positional []string          `json:"positional"`
}

func newRequest(cmd condarun.Command) request {
	pos := cmd.Positional()
	if pos == nil {
		pos = []string{}
	}
	return request{
		Subcommand: cmd.Name(),
		Flags:      cmd.Options(),
		Positional: pos,
	}
}

// inbound is one server frame. Exactly one of Progress or Finished is set;
// frames with neither are ignored.
type inbound struct {
	Progress json.RawMessage `json:"progress"`
	Finished json.RawMessage `json:"finished"`
}
