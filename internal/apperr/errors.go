package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, apperr.ErrAppendFailed) regardless of the cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrUnauthenticated     = New(CodeUnauthenticated, "authentication required")
	ErrInvalidParticipants = New(CodeInvalidParticipants, "invalid conversation participants")
	ErrNotAParticipant     = New(CodeNotAParticipant, "sender is not a participant of the conversation")
	ErrEmptyMessage        = New(CodeEmptyMessage, "message has neither text nor image")
	ErrInvalidMessage      = New(CodeInvalidMessage, "invalid message")
	ErrResolveFailed       = New(CodeResolveFailed, "could not resolve conversation")
	ErrAppendFailed        = New(CodeAppendFailed, "could not append message")
)

func ResolveFailed(cause error) error {
	return Wrap(CodeResolveFailed, "could not resolve conversation", cause)
}

func AppendFailed(cause error) error {
	return Wrap(CodeAppendFailed, "could not append message", cause)
}

func InvalidParticipants(cause error) error {
	return Wrap(CodeInvalidParticipants, "invalid conversation participants", cause)
}

func InvalidMessage(cause error) error {
	return Wrap(CodeInvalidMessage, "invalid message", cause)
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// err does not carry one.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsTimeout reports whether err was caused by a storage deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsTransient reports whether a failed read may succeed on a later attempt.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case CodeResolveFailed, CodeAppendFailed:
		return true
	case "":
		return !errors.Is(err, context.Canceled)
	default:
		return false
	}
}
