package bank

import "fmt"

// Kind classifies a failed bank call.
type Kind int

const (
	// KindRejected: the bank refused the request shape or content (4xx).
	KindRejected Kind = iota + 1
	// KindUnavailable: the bank answered 5xx or 429.
	KindUnavailable
	// KindTimeout: the attempt ran out of time or the bank answered 408.
	KindTimeout
	// KindTransport: the request never got an HTTP answer.
	KindTransport
	// KindProtocol: the bank answered with something we cannot interpret.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Transient reports whether a retry may change the outcome.
func (k Kind) Transient() bool {
	return k == KindUnavailable || k == KindTimeout || k == KindTransport
}

// Error is returned by Client.Charge for every failed call. Message is safe to
// show to API callers; Err holds the underlying cause.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, status int, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: status,
		Err:        cause,
	}
}
