package kredis

import (
	"context"
	"time"

	"github.com/KyberNetwork/redis-scan/pkg/observe/kmetric"
	"github.com/KyberNetwork/redis-scan/pkg/scan"
)

type instrumented[T any] struct {
	strategy scan.Strategy[T]
	name     string
}

// Instrument wraps strategy so every page fetch records kmetric counters and latency.
func Instrument[T any](strategy scan.Strategy[T]) scan.Strategy[T] {
	return instrumented[T]{strategy: strategy, name: scan.NameOf(strategy)}
}

func (s instrumented[T]) Name() string { return s.name }

func (s instrumented[T]) FetchPage(ctx context.Context, conn scan.Conn, cursor scan.Cursor,
	params scan.Params) (scan.Page[T], error) {
	startTime := time.Now()
	page, err := s.strategy.FetchPage(ctx, conn, cursor, params)
	kmetric.PushPageFetchDuration(ctx, time.Since(startTime), kmetric.AttrStrategy, s.name)
	kmetric.IncPageFetch(ctx, s.name, outcome(err))
	kmetric.AddScannedElements(ctx, s.name, len(page.Elements))
	return page, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return kmetric.OutcomeOk
	case scan.Kind(err) == scan.ErrCommand:
		return kmetric.OutcomeCommand
	default:
		return kmetric.OutcomeConnection
	}
}
