package client

import (
	"context"
	"time"

	"github.com/KyberNetwork/kutils/klog"
	"github.com/KyberNetwork/kyber-trace-go/pkg/metric"
	"github.com/KyberNetwork/kyber-trace-go/pkg/tracer"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	kredis "github.com/KyberNetwork/redis-scan/pkg/client/redis"
	"github.com/KyberNetwork/redis-scan/pkg/client/redis/reconnectable"
)

const RedisCloseDelay = time.Minute

// RedisCfg is a hotcfg building a reconnectable pool and the scan client on top of it.
type RedisCfg struct {
	redis.UniversalOptions `mapstructure:",squash"`
	RefreshCooldown        time.Duration
	Retry                  *BackoffCfg
	C                      *kredis.Client
}

func (*RedisCfg) OnUpdate(old, new *RedisCfg) {
	var opts []reconnectable.Option
	if new.RefreshCooldown > 0 {
		opts = append(opts, reconnectable.WithRefreshCooldown(new.RefreshCooldown))
	}
	opts = append(opts, reconnectable.WithOnNewClient(instrument))
	rc := reconnectable.New(&new.UniversalOptions, opts...)

	var clientOpts []kredis.Option
	if new.Retry != nil {
		if old == nil {
			new.Retry.OnUpdate(nil, new.Retry)
		} else {
			new.Retry.OnUpdate(old.Retry, new.Retry)
		}
		clientOpts = append(clientOpts, kredis.WithRetry(new.Retry.NewBackOff))
	}
	new.C = kredis.NewReconnectable(rc, clientOpts...)

	if old != nil && old.C != nil {
		oldC := old.C
		time.AfterFunc(RedisCloseDelay, func() {
			if err := oldC.Close(); err != nil {
				klog.Errorf(context.Background(), "RedisCfg.OnUpdate|old.C.Close() failed|err=%v", err)
			}
		})
	}
}

func instrument(c redis.UniversalClient) {
	ctx := context.Background()
	if metric.Provider() != nil {
		if err := redisotel.InstrumentMetrics(c); err != nil {
			klog.Errorf(ctx, "RedisCfg.OnUpdate|redisotel.InstrumentMetrics failed|err=%v", err)
		}
	}
	if tracer.Provider() != nil {
		if err := redisotel.InstrumentTracing(c); err != nil {
			klog.Errorf(ctx, "RedisCfg.OnUpdate|redisotel.InstrumentTracing failed|err=%v", err)
		}
	}
}
