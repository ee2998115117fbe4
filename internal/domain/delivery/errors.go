package delivery

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed send for the retry policy.
type Kind int

const (
	// KindUnexpected is any failure the transport could not classify.
	KindUnexpected Kind = iota
	// KindRateLimited means the server asked to wait RetryAfter before retrying.
	KindRateLimited
	// KindBlocked means the recipient cannot be reached (bot blocked, chat gone).
	KindBlocked
	// KindTransient covers timeouts and request errors worth retrying.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindBlocked:
		return "blocked"
	case KindTransient:
		return "transient"
	default:
		return "unexpected"
	}
}

// SendError is the tagged failure returned by message transports.
type SendError struct {
	Kind        Kind
	RetryAfter  time.Duration
	Code        int
	Description string
	Err         error
}

func (e *SendError) Error() string {
	msg := fmt.Sprintf("send failed (%s)", e.Kind)
	if e.Code != 0 {
		msg += fmt.Sprintf(" code=%d", e.Code)
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SendError) Unwrap() error { return e.Err }

// Classify returns the kind of err. Errors that are not SendErrors are
// unexpected.
func Classify(err error) (Kind, time.Duration) {
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind, se.RetryAfter
	}
	return KindUnexpected, 0
}
