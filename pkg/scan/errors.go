package scan

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrConnection marks failures to reach the store: pool exhaustion, dial errors, timeouts, closed clients.
	ErrConnection = errors.New("scan: connection failure")
	// ErrCommand marks failures reported by the store itself, e.g. WRONGTYPE, or replies that cannot be parsed.
	ErrCommand = errors.New("scan: command failure")
	// ErrMalformedReply is returned by strategies when a reply does not have the SCAN shape.
	ErrMalformedReply = errors.New("scan: malformed reply")

	// ErrIterationDone is returned by Next once the iterator is terminal.
	ErrIterationDone = errors.New("scan: iteration already complete")
	// ErrNoBufferedElement is returned by Next when the buffer is drained and HasNext was not called.
	ErrNoBufferedElement = errors.New("scan: no buffered element, call HasNext first")
)

// FetchError is returned by HasNext when a page fetch fails. Kind is ErrConnection or ErrCommand.
type FetchError struct {
	Kind   error
	Cursor Cursor
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v: cursor=%s: %v", e.Kind, e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsConnection reports whether err is a connection-class fetch failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsCommand reports whether err is a command-class fetch failure.
func IsCommand(err error) bool {
	return errors.Is(err, ErrCommand)
}

func newFetchError(cursor Cursor, err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	return &FetchError{Kind: Kind(err), Cursor: cursor, Err: err}
}

// Kind sorts a raw error into ErrConnection or ErrCommand. Anything the server replied with, or that the
// client could not parse, is a command failure, except transient replies such as LOADING or CLUSTERDOWN.
// Everything else never got an answer and is a connection failure.
func Kind(err error) error {
	if errors.Is(err, ErrMalformedReply) || errors.Is(err, ErrCommand) {
		return ErrCommand
	}
	if errors.Is(err, ErrConnection) {
		return ErrConnection
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) && !isTransient(redisErr) {
		return ErrCommand
	}
	return ErrConnection
}

// transientPrefixes are server replies that clear up on their own, e.g. while a replica loads its dataset or
// a cluster fails over.
var transientPrefixes = []string{"LOADING ", "TRYAGAIN ", "CLUSTERDOWN ", "MASTERDOWN ", "READONLY "}

func isTransient(err redis.Error) bool {
	msg := err.Error()
	for _, prefix := range transientPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
