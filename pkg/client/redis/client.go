package kredis

import (
	"context"

	kybermetric "github.com/KyberNetwork/kyber-trace-go/pkg/metric"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/KyberNetwork/redis-scan/pkg/client/redis/reconnectable"
	"github.com/KyberNetwork/redis-scan/pkg/scan"
)

// Client is the entry point for one-shot commands and scan iterators. It does not own global state: the
// caller builds the underlying client (or reconnectable pool) and decides how many exist per process.
type Client struct {
	client     func() redis.UniversalClient
	pool       scan.Pool
	close      func() error
	newBackOff func() backoff.BackOff
	metrics    bool
}

type Option func(*Client)

// WithPool overrides the pool iterators borrow connections from.
func WithPool(pool scan.Pool) Option {
	return func(c *Client) {
		c.pool = pool
	}
}

// WithRetry makes iterators retry connection failures of a page fetch. newBackOff is called once per
// HasNext so concurrent iterators never share backoff state.
func WithRetry(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// WithMetrics toggles page fetch metrics. They default to on when a kyber-trace meter provider is set.
func WithMetrics(enabled bool) Option {
	return func(c *Client) {
		c.metrics = enabled
	}
}

// New wraps rdb. Iterators use scan.NewPool(rdb) unless WithPool is given.
func New(rdb redis.UniversalClient, opts ...Option) *Client {
	return newClient(func() redis.UniversalClient { return rdb }, scan.NewPool(rdb), rdb.Close, opts)
}

// NewReconnectable wraps a reconnectable client; both one-shot commands and iterators follow its rebuilds.
func NewReconnectable(rc *reconnectable.RedisClient, opts ...Option) *Client {
	return newClient(rc.Client, rc, rc.Close, opts)
}

func newClient(client func() redis.UniversalClient, pool scan.Pool, closeFn func() error, opts []Option) *Client {
	c := &Client{
		client:  client,
		pool:    pool,
		close:   closeFn,
		metrics: kybermetric.Provider() != nil,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Redis returns the current underlying client for commands this type does not wrap.
func (c *Client) Redis() redis.UniversalClient {
	return c.client()
}

// Pool returns the pool iterators borrow connections from.
func (c *Client) Pool() scan.Pool {
	return c.pool
}

func (c *Client) Close() error {
	return c.close()
}

func (c *Client) Ping(ctx context.Context) error {
	return errors.Wrap(c.client().Ping(ctx).Err(), "Ping")
}

// LPush prepends values to the list at key and returns its new length.
func (c *Client) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	n, err := c.client().LPush(ctx, key, toArgs(values)...).Result()
	return n, errors.Wrapf(err, "LPush %s", key)
}

// LRange returns list elements between start and stop, inclusive.
func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := c.client().LRange(ctx, key, start, stop).Result()
	return values, errors.Wrapf(err, "LRange %s", key)
}

// HMSet sets every field of hash on the hash at key.
func (c *Client) HMSet(ctx context.Context, key string, hash map[string]string) error {
	args := make([]any, 0, 2*len(hash))
	for field, value := range hash {
		args = append(args, field, value)
	}
	return errors.Wrapf(c.client().HSet(ctx, key, args...).Err(), "HMSet %s", key)
}

// HGetAll loads a whole hash. Prefer ScanHash for large hashes.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	hash, err := c.client().HGetAll(ctx, key).Result()
	return hash, errors.Wrapf(err, "HGetAll %s", key)
}

// SAdd adds members to the set at key and returns how many were new.
func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	n, err := c.client().SAdd(ctx, key, toArgs(members)...).Result()
	return n, errors.Wrapf(err, "SAdd %s", key)
}

// SMembers loads a whole set. Prefer ScanSet for large sets.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.client().SMembers(ctx, key).Result()
	return members, errors.Wrapf(err, "SMembers %s", key)
}

// ZAdd adds members with their scores to the sorted set at key and returns how many were new.
func (c *Client) ZAdd(ctx context.Context, key string, scoreMembers map[string]float64) (int64, error) {
	members := make([]redis.Z, 0, len(scoreMembers))
	for member, score := range scoreMembers {
		members = append(members, redis.Z{Score: score, Member: member})
	}
	n, err := c.client().ZAdd(ctx, key, members...).Result()
	return n, errors.Wrapf(err, "ZAdd %s", key)
}

// ZRange returns members between ranks start and stop, inclusive, lowest score first.
func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, err := c.client().ZRange(ctx, key, start, stop).Result()
	return members, errors.Wrapf(err, "ZRange %s", key)
}

// MSet sets every key of keysValues.
func (c *Client) MSet(ctx context.Context, keysValues map[string]string) error {
	args := make([]any, 0, 2*len(keysValues))
	for key, value := range keysValues {
		args = append(args, key, value)
	}
	return errors.Wrap(c.client().MSet(ctx, args...).Err(), "MSet")
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(c.client().Set(ctx, key, value, 0).Err(), "Set %s", key)
}

// Get returns redis.Nil (unwrapped) when key does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client().Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", redis.Nil
	}
	return value, errors.Wrapf(err, "Get %s", key)
}

// Keys runs KEYS, which blocks the server for the whole keyspace walk. Use ScanKeys outside of tests.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := c.client().Keys(ctx, pattern).Result()
	return keys, errors.Wrapf(err, "Keys %s", pattern)
}

func (c *Client) FlushAll(ctx context.Context) error {
	return errors.Wrap(c.client().FlushAll(ctx).Err(), "FlushAll")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
