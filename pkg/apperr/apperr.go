// Package apperr carries a request-level failure as a kind plus a message
// safe to return to the client. Handlers and the service layer build these;
// pkg/response translates them to HTTP exactly once.
package apperr

import "fmt"

type Kind int

const (
	Validation Kind = iota // bad or duplicate input
	Unauthorized
	Forbidden
	NotFound
	Internal
)

type Error struct {
	Kind    Kind
	Message string // returned to the client verbatim
	Err     error  // wrapped cause, logged but never returned
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause that should be logged but not leaked to the client.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
