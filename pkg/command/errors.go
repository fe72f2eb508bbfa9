package command

import (
	"errors"
	"fmt"
)

// ErrMalformed matches every *MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed command")

// MalformedError reports a command line that could not be parsed.
type MalformedError struct {
	Verb   string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("malformed %s command: %s", e.Verb, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return e.Err }

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

func malformed(verb, reason string, err error) *MalformedError {
	return &MalformedError{Verb: verb, Reason: reason, Err: err}
}
