package upgradewire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAgentReply marks an "err" reply from the agent. Wrap it with
// errors.Is to distinguish a well-formed agent-side refusal from a
// malformed or framing-level failure.
var ErrAgentReply = errors.New("upgradewire: agent returned an error reply")

// Reply is the parsed form of an agent response, per spec.md §4.2.
type Reply struct {
	// Payload is the token after "ok ", if any (a sha1 digest or exit code).
	Payload string
}

// Parse classifies raw as a success (first token "ok") or failure (first
// token "err"); any other shape is a malformed-reply error. Parsing only
// slices raw, never copies beyond extracting the payload substring.
func Parse(raw string) (Reply, error) {
	raw = strings.TrimRight(raw, "\r\n")
	verb, rest, _ := strings.Cut(raw, " ")

	switch verb {
	case "ok":
		return Reply{Payload: rest}, nil
	case "err":
		if rest == "" {
			return Reply{}, ErrAgentReply
		}
		return Reply{}, fmt.Errorf("%w: %s", ErrAgentReply, rest)
	default:
		return Reply{}, fmt.Errorf("upgradewire: malformed reply %q", raw)
	}
}
