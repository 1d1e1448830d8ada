package reconnectable

import (
	"context"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/KyberNetwork/kutils/klog"
	"github.com/redis/go-redis/v9"

	"github.com/KyberNetwork/redis-scan/pkg/scan"
)

// RedisClient owns a go-redis UniversalClient and replaces it with a fresh one when commands fail with
// "connection refused". It is the connection pool handed to scan iterators: every page fetch borrows a
// connection from whichever client is current at that moment.
type RedisClient struct {
	opts        *redis.UniversalOptions
	onNewClient func(redis.UniversalClient)

	current atomic.Pointer[clientRef]
	closed  atomic.Bool

	lastRefreshTime   atomic.Value
	refreshCooldown   time.Duration
	refreshInProgress atomic.Bool
}

type clientRef struct {
	redis.UniversalClient
}

type Option func(*RedisClient)

// WithRefreshCooldown sets the minimum time between two client rebuilds.
func WithRefreshCooldown(d time.Duration) Option {
	return func(r *RedisClient) {
		r.refreshCooldown = d
	}
}

// WithOnNewClient registers a callback run on every client the pool builds, e.g. to add instrumentation.
func WithOnNewClient(fn func(redis.UniversalClient)) Option {
	return func(r *RedisClient) {
		r.onNewClient = fn
	}
}

func New(cfg *redis.UniversalOptions, opts ...Option) *RedisClient {
	rc := &RedisClient{
		opts:            cfg,
		refreshCooldown: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(rc)
	}
	rc.current.Store(&clientRef{rc.newClient()})
	return rc
}

// Client returns the current client. Callers should not cache it across commands.
func (r *RedisClient) Client() redis.UniversalClient {
	return r.current.Load().UniversalClient
}

// Conn implements scan.Pool.
func (r *RedisClient) Conn(ctx context.Context) (scan.Conn, error) {
	if r.closed.Load() {
		return nil, redis.ErrClosed
	}
	return scan.NewPool(r.Client()).Conn(ctx)
}

// Close closes the current client. Later Conn calls fail with redis.ErrClosed.
func (r *RedisClient) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.Client().Close()
}

func (r *RedisClient) newClient() redis.UniversalClient {
	client := redis.NewUniversalClient(r.opts)
	client.AddHook(r)
	if r.onNewClient != nil {
		r.onNewClient(client)
	}
	return client
}

func (r *RedisClient) canRefreshClient() bool {
	lastRefresh, ok := r.lastRefreshTime.Load().(time.Time)
	if !ok {
		return true
	}
	return time.Since(lastRefresh) >= r.refreshCooldown
}

func (r *RedisClient) refreshClient(ctx context.Context) {
	if r.closed.Load() || r.refreshInProgress.Load() || !r.refreshInProgress.CompareAndSwap(false, true) {
		return
	}

	defer r.refreshInProgress.Store(false)

	if !r.canRefreshClient() {
		return
	}

	newClient := r.newClient()
	oldClient := r.current.Swap(&clientRef{newClient})
	r.lastRefreshTime.Store(time.Now())
	// Close may have run after the check above and closed the client that was just replaced
	if r.closed.Load() {
		_ = newClient.Close()
	} else {
		klog.Infof(ctx, "reconnectable.RedisClient.refreshClient|addrs=%v|client rebuilt", r.opts.Addrs)
	}

	go func() {
		if oldClient != nil {
			_ = oldClient.Close()
		}
	}()
}

func shouldRefreshClient(err error) bool {
	return err != nil && strings.Contains(err.Error(), "connection refused")
}

func (r *RedisClient) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (r *RedisClient) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if shouldRefreshClient(err) {
			r.refreshClient(ctx)
		}

		return err
	}
}

func (r *RedisClient) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if shouldRefreshClient(err) {
			r.refreshClient(ctx)
		}

		return err
	}
}

var _ scan.Pool = (*RedisClient)(nil)
