package scan

import (
	"context"

	"github.com/KyberNetwork/kutils/klog"
)

// State of an Iterator.
type State int

const (
	// Ready means buffered elements are waiting to be read.
	Ready State = iota
	// ExhaustedPending means the buffer is drained but the server has not returned the sentinel cursor yet.
	ExhaustedPending
	// Terminal means the sentinel cursor was received and the buffer is drained.
	Terminal
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case ExhaustedPending:
		return "exhausted_pending"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Iterator is a forward-only, non-restartable sequence over a scan. It borrows a connection from its Pool for
// each page fetch and gives it back before returning. An Iterator is not safe for concurrent use; separate
// iterators are independent.
//
//	it := scan.New(pool, scan.Keys(), scan.Params{Count: 100, Match: "user:*"})
//	for {
//		ok, err := it.HasNext(ctx)
//		if err != nil || !ok {
//			break
//		}
//		key, _ := it.Next()
//	}
type Iterator[T any] struct {
	pool     Pool
	strategy Strategy[T]
	params   Params

	cursor  Cursor
	fetched bool // StartCursor means "not started" until the first page arrives
	buf     []T
	pos     int
}

// New returns an iterator positioned before the first page.
func New[T any](pool Pool, strategy Strategy[T], params Params) *Iterator[T] {
	return &Iterator[T]{
		pool:     pool,
		strategy: strategy,
		params:   params,
		cursor:   StartCursor,
	}
}

// State reports where the iterator is in its lifecycle. A fresh iterator is ExhaustedPending.
func (it *Iterator[T]) State() State {
	switch {
	case it.pos < len(it.buf):
		return Ready
	case it.fetched && it.cursor.Done():
		return Terminal
	default:
		return ExhaustedPending
	}
}

// Cursor returns the last cursor received from the server, or StartCursor before the first fetch.
func (it *Iterator[T]) Cursor() Cursor {
	return it.cursor
}

// Params returns the parameters every page is fetched with.
func (it *Iterator[T]) Params() Params {
	return it.params
}

// HasNext reports whether Next will return an element, fetching pages until one is non-empty or the server
// returns the sentinel cursor. A fetch error leaves the iterator untouched, so calling HasNext again retries
// the same cursor.
func (it *Iterator[T]) HasNext(ctx context.Context) (bool, error) {
	for {
		switch it.State() {
		case Ready:
			return true, nil
		case Terminal:
			return false, nil
		}
		page, err := it.fetch(ctx)
		if err != nil {
			return false, err
		}
		it.fetched = true
		it.cursor = page.Cursor
		it.buf, it.pos = page.Elements, 0
	}
}

// Next returns the next buffered element. It never performs I/O and never writes to the page a strategy
// returned.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	switch it.State() {
	case Terminal:
		return zero, ErrIterationDone
	case ExhaustedPending:
		return zero, ErrNoBufferedElement
	}
	v := it.buf[it.pos]
	it.pos++
	if it.pos == len(it.buf) {
		it.buf, it.pos = nil, 0
	}
	return v, nil
}

func (it *Iterator[T]) fetch(ctx context.Context) (page Page[T], err error) {
	conn, err := it.pool.Conn(ctx)
	if err != nil {
		return page, &FetchError{Kind: ErrConnection, Cursor: it.cursor, Err: err}
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			klog.Warnf(ctx, "scan.Iterator.fetch|conn.Close failed|err=%v", closeErr)
		}
	}()

	page, err = it.strategy.FetchPage(ctx, conn, it.cursor, it.params)
	if err != nil {
		return page, newFetchError(it.cursor, err)
	}
	klog.Debugf(ctx, "scan.Iterator.fetch|strategy=%s|cursor=%s|next=%s|elements=%d",
		NameOf(it.strategy), it.cursor, page.Cursor, len(page.Elements))
	return page, nil
}
