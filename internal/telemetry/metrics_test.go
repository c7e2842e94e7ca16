package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestGetMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	m := GetMetrics()
	require.Same(t, m, GetMetrics())

	ctx := context.Background()
	m.PassesTotal.Add(ctx, 2)
	m.PointsCreditedTotal.Add(ctx, 150)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Equal(t, meterName, rm.ScopeMetrics[0].Scope.Name)

	sums := map[string]int64{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
			for _, dp := range sum.DataPoints {
				sums[metric.Name] += dp.Value
			}
		}
	}

	require.Equal(t, int64(2), sums["orgpay.dispatcher.passes.total"])
	require.Equal(t, int64(150), sums["orgpay.ledger.points.total"])
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.Equal(t, 1.0, cfg.TraceSampleRatio)
	require.NotZero(t, cfg.MetricInterval)

	cfg = Config{TraceSampleRatio: 0.25}
	cfg.ApplyDefaults()
	require.Equal(t, 0.25, cfg.TraceSampleRatio)
}
