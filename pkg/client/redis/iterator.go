package kredis

import (
	"context"
	"time"

	"github.com/KyberNetwork/kutils/klog"
	"github.com/cenkalti/backoff/v4"

	"github.com/KyberNetwork/redis-scan/pkg/scan"
)

// ScanIterator is a scan.Iterator that, when the client was built WithRetry, retries connection failures
// of a page fetch. The failed fetch leaves the cursor untouched, so every retry resends the same cursor on
// a freshly borrowed connection. Command failures are returned at once.
type ScanIterator[T any] struct {
	*scan.Iterator[T]
	newBackOff func() backoff.BackOff
}

// HasNext is scan.Iterator.HasNext with the client's retry policy applied.
func (it *ScanIterator[T]) HasNext(ctx context.Context) (bool, error) {
	if it.newBackOff == nil || it.Iterator.State() != scan.ExhaustedPending {
		return it.Iterator.HasNext(ctx)
	}
	var hasNext bool
	err := backoff.RetryNotify(func() error {
		var err error
		if hasNext, err = it.Iterator.HasNext(ctx); err != nil && !scan.IsConnection(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(it.newBackOff(), ctx), func(err error, wait time.Duration) {
		klog.Warnf(ctx, "kredis.ScanIterator.HasNext|cursor=%s|retry in %s|err=%v", it.Cursor(), wait, err)
	})
	return hasNext, err
}

// Iterator builds an iterator over strategy with the client's pool. count <= 0 leaves the page size to the
// server; an empty pattern matches everything.
func Iterator[T any](c *Client, count int64, pattern string, strategy scan.Strategy[T]) *ScanIterator[T] {
	return IteratorWithParams(c, scan.Params{Count: count, Match: pattern}, strategy)
}

// IteratorWithParams is Iterator with every scan parameter exposed, e.g. the keyspace TYPE filter.
func IteratorWithParams[T any](c *Client, params scan.Params, strategy scan.Strategy[T]) *ScanIterator[T] {
	if c.metrics {
		strategy = Instrument(strategy)
	}
	return &ScanIterator[T]{
		Iterator:   scan.New(c.pool, strategy, params),
		newBackOff: c.newBackOff,
	}
}

// ScanKeys iterates top-level keys matching pattern.
func (c *Client) ScanKeys(count int64, pattern string) *ScanIterator[string] {
	return Iterator[string](c, count, pattern, scan.Keys())
}

// ScanKeysOfType iterates top-level keys matching pattern whose type is keyType (string, hash, set, ...).
func (c *Client) ScanKeysOfType(count int64, pattern, keyType string) *ScanIterator[string] {
	return IteratorWithParams[string](c, scan.Params{Count: count, Match: pattern, Type: keyType}, scan.Keys())
}

// ScanHash iterates field/value pairs of the hash at key whose field matches pattern.
func (c *Client) ScanHash(key string, count int64, pattern string) *ScanIterator[scan.Field] {
	return Iterator[scan.Field](c, count, pattern, scan.Hash(key))
}

// ScanHashFields iterates only the field names of the hash at key.
func (c *Client) ScanHashFields(key string, count int64, pattern string) *ScanIterator[string] {
	return Iterator[string](c, count, pattern, scan.HashFields(key))
}

// ScanHashValues iterates only the values of the hash at key, filtered by field pattern.
func (c *Client) ScanHashValues(key string, count int64, pattern string) *ScanIterator[string] {
	return Iterator[string](c, count, pattern, scan.HashValues(key))
}

// ScanSet iterates members of the set at key.
func (c *Client) ScanSet(key string, count int64, pattern string) *ScanIterator[string] {
	return Iterator[string](c, count, pattern, scan.Set(key))
}

// ScanSortedSet iterates members and scores of the sorted set at key.
func (c *Client) ScanSortedSet(key string, count int64, pattern string) *ScanIterator[scan.Member] {
	return Iterator[scan.Member](c, count, pattern, scan.SortedSet(key))
}
