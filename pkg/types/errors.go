package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned by a decoding strategy whose trigger or
	// secondary pattern is absent. The classifier moves to the next strategy.
	ErrNoMatch = errors.New("strategy did not match")

	// ErrBlankReference is returned for an empty stream reference.
	ErrBlankReference = errors.New("stream reference is blank")
)

// TransportError reports a connection failure or timeout that survived
// the https->http downgrade.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports that an expected HTML element is absent.
type NotFoundError struct {
	What string
	URL  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in %s", e.What, e.URL)
}

// DecodeError reports that a strategy matched its trigger but a required
// field was missing or undecodable. Fatal errors end the candidate;
// non-fatal ones let the next strategy try.
type DecodeError struct {
	Strategy string
	Field    string
	Fatal    bool
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: decoding %s: %v", e.Strategy, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: missing %s", e.Strategy, e.Field)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ClassifyError maps a candidate failure onto an Outcome.
func ClassifyError(err error) Outcome {
	var (
		transportErr *TransportError
		notFoundErr  *NotFoundError
		decodeErr    *DecodeError
	)
	switch {
	case err == nil:
		return OutcomeResolved
	case errors.Is(err, ErrNoMatch):
		return OutcomeNoMatch
	case errors.As(err, &decodeErr):
		return OutcomeDecode
	case errors.As(err, &transportErr):
		return OutcomeTransport
	case errors.As(err, &notFoundErr):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
