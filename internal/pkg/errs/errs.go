package errs

import (
	"fmt"
)

// Kind classifies a transcription failure
type Kind int

const (
	// KindUnknown is the zero value, not attached to real errors
	KindUnknown Kind = iota
	// KindNotAvailable - no captions exist for the video
	KindNotAvailable
	// KindAccessDenied - the source refuses the request
	KindAccessDenied
	// KindQuotaExceeded - speech service limits reached
	KindQuotaExceeded
	// KindTimeout - a pipeline stage exceeded its deadline
	KindTimeout
	// KindInvalidRequest - malformed url, mode or language
	KindInvalidRequest
	// KindInternal - unexpected collaborator failure
	KindInternal
)

var kindCodes = map[Kind]string{
	KindNotAvailable:   "NOT_AVAILABLE",
	KindAccessDenied:   "ACCESS_DENIED",
	KindQuotaExceeded:  "QUOTA_EXCEEDED",
	KindTimeout:        "TIMEOUT",
	KindInvalidRequest: "INVALID_REQUEST",
	KindInternal:       "SERVICE_ERROR",
}

// Code returns the wire code for a kind
func (k Kind) Code() string {
	c, f := kindCodes[k]
	if !f {
		return kindCodes[KindInternal]
	}
	return c
}

type kindError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// New creates a typed error
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Errorf creates a typed error with formatting
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, msg: msg, cause: err}
}

// GetKind extracts the kind from an error chain, KindInternal if none found
func GetKind(err error) Kind {
	for err != nil {
		if ke, ok := err.(*kindError); ok {
			return ke.kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindInternal
}

// Is tests the kind of an error chain
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return GetKind(err) == kind
}
