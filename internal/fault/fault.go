// Package fault classifies the failures the service can surface to callers.
// Every error that crosses a handler boundary is one of these kinds; the
// HTTP layer maps the kind to a status code exactly once.
package fault

import "fmt"

type Kind int

const (
	// Unexpected is the catch-all for failures with no better classification.
	Unexpected Kind = iota
	// Configuration means required process configuration is absent. Fatal
	// for the request, not for the process.
	Configuration
	// Transport covers network errors, timeouts and non-2xx responses from
	// the gateway or the broker.
	Transport
	// Protocol means a dependency answered successfully but the response
	// shape violated its own contract.
	Protocol
	// Validation means the inbound request itself was malformed.
	Validation
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Transport:
		return "transport"
	case Protocol:
		return "protocol"
	case Validation:
		return "validation"
	default:
		return "unexpected"
	}
}

// Fault is an error with a classification, a caller-facing message and
// optional diagnostic fields merged into the error response body.
type Fault struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// WithDetails attaches a diagnostic field to be echoed in the response body.
func (f *Fault) WithDetails(key string, value any) *Fault {
	if f.Details == nil {
		f.Details = make(map[string]any)
	}
	f.Details[key] = value
	return f
}
