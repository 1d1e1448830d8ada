package scan

import (
	"context"
)

// Strategy fetches one page of a scan. Implementations bind the target (if any) and pick the command; they
// never hold the cursor and never retry.
type Strategy[T any] interface {
	FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[T], error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc[T any] func(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[T], error)

func (f StrategyFunc[T]) FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[T], error) {
	return f(ctx, conn, cursor, params)
}

// Named is implemented by strategies that can describe themselves in logs and metrics.
type Named interface {
	Name() string
}

// NameOf returns the strategy name, or "custom".
func NameOf(strategy any) string {
	if n, ok := strategy.(Named); ok {
		return n.Name()
	}
	return "custom"
}

// KeyScan iterates the whole keyspace with SCAN.
type KeyScan struct{}

// Keys returns the keyspace strategy.
func Keys() KeyScan {
	return KeyScan{}
}

func (KeyScan) Name() string { return "scan" }

func (KeyScan) FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[string], error) {
	args := appendParams([]any{"scan", cursor.String()}, params)
	if params.Type != "" {
		args = append(args, "type", params.Type)
	}
	next, elements, err := process(ctx, conn, args...)
	if err != nil {
		return Page[string]{}, err
	}
	keys, err := toStrings(elements)
	if err != nil {
		return Page[string]{}, err
	}
	return Page[string]{Cursor: next, Elements: keys}, nil
}

// HashScan iterates field/value pairs of one hash with HSCAN.
type HashScan struct {
	Key string
}

// Hash returns a strategy scanning the hash at key.
func Hash(key string) HashScan {
	return HashScan{Key: key}
}

func (HashScan) Name() string { return "hscan" }

func (s HashScan) FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[Field], error) {
	next, elements, err := process(ctx, conn, appendParams([]any{"hscan", s.Key, cursor.String()}, params)...)
	if err != nil {
		return Page[Field]{}, err
	}
	fields, err := toFields(elements)
	if err != nil {
		return Page[Field]{}, err
	}
	return Page[Field]{Cursor: next, Elements: fields}, nil
}

// SetScan iterates members of one set with SSCAN.
type SetScan struct {
	Key string
}

// Set returns a strategy scanning the set at key.
func Set(key string) SetScan {
	return SetScan{Key: key}
}

func (SetScan) Name() string { return "sscan" }

func (s SetScan) FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[string], error) {
	next, elements, err := process(ctx, conn, appendParams([]any{"sscan", s.Key, cursor.String()}, params)...)
	if err != nil {
		return Page[string]{}, err
	}
	members, err := toStrings(elements)
	if err != nil {
		return Page[string]{}, err
	}
	return Page[string]{Cursor: next, Elements: members}, nil
}

// SortedSetScan iterates members and scores of one sorted set with ZSCAN.
type SortedSetScan struct {
	Key string
}

// SortedSet returns a strategy scanning the sorted set at key.
func SortedSet(key string) SortedSetScan {
	return SortedSetScan{Key: key}
}

func (SortedSetScan) Name() string { return "zscan" }

func (s SortedSetScan) FetchPage(ctx context.Context, conn Conn, cursor Cursor, params Params) (Page[Member],
	error) {
	next, elements, err := process(ctx, conn, appendParams([]any{"zscan", s.Key, cursor.String()}, params)...)
	if err != nil {
		return Page[Member]{}, err
	}
	members, err := toMembers(elements)
	if err != nil {
		return Page[Member]{}, err
	}
	return Page[Member]{Cursor: next, Elements: members}, nil
}

var (
	_ Strategy[string] = KeyScan{}
	_ Strategy[Field]  = HashScan{}
	_ Strategy[string] = SetScan{}
	_ Strategy[Member] = SortedSetScan{}
)
