package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func withManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })
	return reader
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name, loader string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("loader")); ok && v.AsString() == loader {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestBatchMetricsAreLabelledByLoader(t *testing.T) {
	reader := withManualReader(t)
	m, err := InitGraphQLMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordBatchCacheHit(ctx, "seriesByID")
	m.RecordBatchCacheHit(ctx, "seriesByID")
	m.RecordBatchCacheMiss(ctx, "issueByID")
	m.RecordBatchFailure(ctx, "issueByID")
	m.RecordBatchQueriesSaved(ctx, 4, "seriesByID")
	m.RecordBatchQueriesSaved(ctx, 0, "issueByID")

	assert.Equal(t, int64(2), counterTotal(t, reader, "dataloader.cache.hits", "seriesByID"))
	assert.Equal(t, int64(1), counterTotal(t, reader, "dataloader.cache.misses", "issueByID"))
	assert.Equal(t, int64(1), counterTotal(t, reader, "dataloader.batch.failures", "issueByID"))
	assert.Equal(t, int64(4), counterTotal(t, reader, "dataloader.batch.queries_saved", "seriesByID"))
	assert.Equal(t, int64(0), counterTotal(t, reader, "dataloader.batch.queries_saved", "issueByID"))
}
