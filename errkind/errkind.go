// Package errkind classifies every error the graph state machine can
// surface into one of the four kinds the design distinguishes, so callers
// can decide whether to retry, back off, or treat the graph as unusable.
package errkind

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind is the classification of an error raised anywhere in the graph
// state machine.
type Kind int

const (
	// Precondition is raised when an action's predecessor confirmation
	// or timelock requirement is not yet satisfied. Callers should wait
	// and retry; it is never a sign of a broken graph.
	Precondition Kind = iota

	// Protocol is raised for Byzantine-peer conditions: merge conflicts,
	// validation-reconstruction mismatches, duplicate destination-chain
	// event matches, or a nonce-before-signature violation. Fatal to the
	// current transition; the graph is marked unusable for it.
	Protocol

	// ChainTransient is raised for I/O failures talking to the chain
	// client (tx_status, broadcast, get_block_height,
	// get_address_utxo). Callers should retry with backoff.
	ChainTransient

	// Cryptographic is raised for unrecoverable cryptographic failures:
	// Winternitz secret reuse, MuSig2 aggregation rejection, or an
	// invoked disprove that yields no witness. Fatal.
	Cryptographic
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition-violated"
	case Protocol:
		return "protocol-violated"
	case ChainTransient:
		return "chain-transient"
	case Cryptographic:
		return "cryptographic"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its kind and a stack trace captured
// at the point of creation, via go-errors/errors.
type Error struct {
	Kind Kind
	err  *goerrors.Error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.err.Error())
}

// Unwrap exposes the underlying error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.err.Err
}

// ErrorStack returns the captured stack trace, useful when logging a
// Protocol or Cryptographic error that aborted a transition.
func (e *Error) ErrorStack() string {
	return e.err.ErrorStack()
}

// New creates a classified error from a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, err: goerrors.New(msg)}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, err: goerrors.New(fmt.Sprintf(format, args...))}
}

// Wrap classifies an existing error, preserving its message and attaching
// a stack trace if it does not already carry one.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: goerrors.Wrap(err, 1)}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}
