package scan

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Conn is what a Strategy needs to run one command. It is held for a single page fetch only.
type Conn interface {
	Process(ctx context.Context, cmd redis.Cmder) error
	Close() error
}

// Pool hands out a Conn per page fetch. The Iterator closes it on every exit path.
type Pool interface {
	Conn(ctx context.Context) (Conn, error)
}

// PoolFunc adapts a function to Pool.
type PoolFunc func(ctx context.Context) (Conn, error)

func (f PoolFunc) Conn(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// NewPool returns a Pool backed by a go-redis client. A *redis.Client yields a dedicated pooled connection
// per fetch; other universal clients (cluster, failover, ring) route the command themselves and the returned
// Conn only scopes it.
func NewPool(client redis.UniversalClient) Pool {
	if c, ok := client.(*redis.Client); ok {
		return PoolFunc(func(context.Context) (Conn, error) {
			return c.Conn(), nil
		})
	}
	return PoolFunc(func(context.Context) (Conn, error) {
		return routedConn{client}, nil
	})
}

type routedConn struct {
	redis.UniversalClient
}

// Close does not close the shared client.
func (routedConn) Close() error {
	return nil
}
