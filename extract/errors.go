package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/richinex/cmdsaw/llm"
)

// ErrorKind classifies an extraction failure.
type ErrorKind string

const (
	// KindConnect covers transport failures and provider 5xx responses.
	KindConnect ErrorKind = "connect"
	// KindTimeout is a call that exceeded its deadline.
	KindTimeout ErrorKind = "timeout"
	// KindRateLimited is a provider 429 or a limiter that could not admit the call.
	KindRateLimited ErrorKind = "rate_limited"
	// KindMalformed is a response that was not JSON or broke the contract.
	KindMalformed ErrorKind = "malformed"
	// KindRejected is a provider refusal that retrying cannot fix (auth, bad request).
	KindRejected ErrorKind = "rejected"
)

// Transient reports whether a retry with backoff may succeed.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindConnect, KindTimeout, KindRateLimited:
		return true
	default:
		return false
	}
}

// Error is a classified extraction failure. Partial holds the JSON that
// parsed but failed the contract, when there was any.
type Error struct {
	Kind    ErrorKind
	Partial json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, if it is an extraction error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// classify maps a provider error onto an ErrorKind.
func classify(err error) *Error {
	if code, ok := llm.StatusCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimited, Err: err}
		case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
			return &Error{Kind: KindTimeout, Err: err}
		case code >= 500:
			return &Error{Kind: KindConnect, Err: err}
		default:
			return &Error{Kind: KindRejected, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindConnect, Err: err}
}
