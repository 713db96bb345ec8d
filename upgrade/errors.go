package upgrade

import "errors"

// Kind is a stable taxonomy identifier, attached to errors surfaced through
// Outcome.Detail so the tasktracker package and callers can classify a
// failure without string matching. The set matches spec.md §7 exactly.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnect
	KindSend
	KindRecv
	KindWpkSha1DoesNotMatch
	KindWpkFileDoesNotExist
	KindSendLockRestartError
	KindSendOpenError
	KindSendWriteError
	KindSendCloseError
	KindSendSha1Error
	KindSendUpgradeError
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "Connect"
	case KindSend:
		return "Send"
	case KindRecv:
		return "Recv"
	case KindWpkSha1DoesNotMatch:
		return "WpkSha1DoesNotMatch"
	case KindWpkFileDoesNotExist:
		return "WpkFileDoesNotExist"
	case KindSendLockRestartError:
		return "SendLockRestartError"
	case KindSendOpenError:
		return "SendOpenError"
	case KindSendWriteError:
		return "SendWriteError"
	case KindSendCloseError:
		return "SendCloseError"
	case KindSendSha1Error:
		return "SendSha1Error"
	case KindSendUpgradeError:
		return "SendUpgradeError"
	default:
		return "Unknown"
	}
}

// TypedError pairs a stable Kind with the underlying cause, the same shape
// the teacher uses for wsman.Fault: a typed value plus predicate-friendly
// fields, matched with errors.As rather than string comparison.
type TypedError struct {
	Kind  Kind
	Cause error
}

func (e *TypedError) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *TypedError) Unwrap() error { return e.Cause }

// NewError wraps cause with kind.
func NewError(kind Kind, cause error) error {
	return &TypedError{Kind: kind, Cause: cause}
}

// ErrSha1Mismatch marks the sha1 correctness-gate failure distinctly from a
// plain transport error on the same stage (spec.md §4.3, §7): the stage and
// Kind are still "sha1"/SendSha1Error, but callers that need to show a
// user-facing message distinct from "couldn't reach the agent" can test for
// this with errors.Is.
var ErrSha1Mismatch = errors.New("upgrade: sha1 does not match")

// ErrorKind extracts the Kind from err, returning KindUnknown if err does
// not carry one.
func ErrorKind(err error) Kind {
	var te *TypedError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}
