// Package scan iterates redis keyspaces, hashes, sets and sorted sets with the incremental SCAN family of
// commands. The server hands back an opaque cursor with every page; an Iterator owns that cursor, a Strategy
// knows which command to send for it.
package scan

// Cursor is the continuation token returned by a SCAN-family command. It is sent back exactly as received.
type Cursor string

// StartCursor both starts a scan and, when returned by the server, ends it.
const StartCursor Cursor = "0"

// Done reports whether c is the sentinel cursor.
func (c Cursor) Done() bool {
	return c == StartCursor
}

func (c Cursor) String() string {
	return string(c)
}

// Params are fixed for the lifetime of an Iterator.
type Params struct {
	Count int64  // COUNT hint, omitted when <= 0
	Match string // MATCH glob, omitted when empty
	Type  string // TYPE filter, only honored by the keyspace scan
}

// Page is the result of a single round-trip.
type Page[T any] struct {
	Cursor   Cursor
	Elements []T
}

// Field is a hash field with its value.
type Field struct {
	Name  string
	Value string
}

// Member is a sorted set member with its score.
type Member struct {
	Name  string
	Score float64
}
