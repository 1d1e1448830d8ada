package kmetric

import (
	"context"
	"time"

	"github.com/KyberNetwork/kyber-trace-go/pkg/constant"
	kybermetric "github.com/KyberNetwork/kyber-trace-go/pkg/metric"
	"github.com/KyberNetwork/kyber-trace-go/pkg/util/env"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	PageFetch         = "scan_page_fetch"
	PageFetchDuration = "scan_page_fetch_duration"
	ScannedElements   = "scan_elements"

	AttrClientName = "client.name"
	AttrStrategy   = "strategy"
	AttrOutcome    = "outcome"

	OutcomeOk         = "ok"
	OutcomeConnection = "connection_error"
	OutcomeCommand    = "command_error"
)

var (
	serviceName    = env.StringFromEnv(constant.EnvKeyOtelServiceName, constant.OtelDefaultServiceName)
	clientNameAttr = attribute.String(AttrClientName, serviceName)

	meter            = kybermetric.Meter()
	pageFetchCounter = noErr(meter.Int64Counter(PageFetch,
		metric.WithDescription("Counter of scan page fetches")))
	scannedElementsCounter = noErr(meter.Int64Counter(ScannedElements,
		metric.WithDescription("Counter of elements returned by scan page fetches")))
	pageFetchDurationHistogram = noErr(meter.Float64Histogram(PageFetchDuration,
		metric.WithUnit("ms"), metric.WithDescription("Histogram of scan page fetch durations")))
)

func noErr[T any](t T, _ error) T {
	return t
}

func IncPageFetch(ctx context.Context, strategy, outcome string) {
	pageFetchCounter.Add(ctx, 1, metric.WithAttributes(clientNameAttr,
		attribute.String(AttrStrategy, strategy), attribute.String(AttrOutcome, outcome)))
}

func AddScannedElements(ctx context.Context, strategy string, n int) {
	if n <= 0 {
		return
	}
	scannedElementsCounter.Add(ctx, int64(n), metric.WithAttributes(clientNameAttr,
		attribute.String(AttrStrategy, strategy)))
}

func PushPageFetchDuration(ctx context.Context, duration time.Duration, keyValues ...string) {
	attributes := make([]attribute.KeyValue, 1+len(keyValues)/2)
	attributes[0] = clientNameAttr
	for i := 1; i < len(keyValues); i += 2 {
		attributes[i/2+1] = attribute.String(keyValues[i-1], keyValues[i])
	}
	pageFetchDurationHistogram.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attributes...))
}
