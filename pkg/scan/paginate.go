package scan

import (
	"context"
)

// Sequence is the pull contract of Iterator, also met by wrappers around it.
type Sequence[T any] interface {
	HasNext(ctx context.Context) (bool, error)
	Next() (T, error)
}

// ForEach drains it, calling fn for every element. It stops at the first error from the iterator or from fn.
func ForEach[T any](ctx context.Context, it Sequence[T], fn func(T) error) error {
	for {
		ok, err := it.HasNext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		v, err := it.Next()
		if err != nil {
			return err
		}
		if err = fn(v); err != nil {
			return err
		}
	}
}

// Collect drains it into a slice. Meant for bounded namespaces; a large keyspace should be consumed with
// ForEach or Paginate instead.
func Collect[T any](ctx context.Context, it Sequence[T]) ([]T, error) {
	var out []T
	err := ForEach[T](ctx, it, func(v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// Paginate runs a scan page by page without an Iterator, handing every page (empty ones included) to
// callbackFn. It stops when the server returns the sentinel cursor.
func Paginate[T any](ctx context.Context, pool Pool, strategy Strategy[T], params Params,
	callbackFn func(page Page[T]) error) error {
	it := New(pool, strategy, params)
	for {
		page, err := it.fetch(ctx)
		if err != nil {
			return err
		}
		if err = callbackFn(page); err != nil {
			return err
		}
		if page.Cursor.Done() {
			return nil
		}
		it.cursor = page.Cursor
	}
}
