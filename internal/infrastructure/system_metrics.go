package infrastructure

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics samples process memory and goroutine counts at the end of a run.
type RuntimeMetrics struct {
	heapAlloc  metric.Int64Gauge
	totalAlloc metric.Int64Gauge
	gcCount    metric.Int64Gauge
	goroutines metric.Int64Gauge
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	heapAlloc, err := meter.Int64Gauge("etl_runtime_heap_alloc_bytes",
		metric.WithDescription("Heap bytes allocated and in use"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("heap gauge: %w", err)
	}
	totalAlloc, err := meter.Int64Gauge("etl_runtime_total_alloc_bytes",
		metric.WithDescription("Cumulative heap bytes allocated"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("total alloc gauge: %w", err)
	}
	gcCount, err := meter.Int64Gauge("etl_runtime_gc_cycles",
		metric.WithDescription("Completed GC cycles"))
	if err != nil {
		return nil, fmt.Errorf("gc gauge: %w", err)
	}
	goroutines, err := meter.Int64Gauge("etl_runtime_goroutines",
		metric.WithDescription("Number of goroutines"))
	if err != nil {
		return nil, fmt.Errorf("goroutine gauge: %w", err)
	}

	return &RuntimeMetrics{
		heapAlloc:  heapAlloc,
		totalAlloc: totalAlloc,
		gcCount:    gcCount,
		goroutines: goroutines,
	}, nil
}

// Record samples the runtime and sets every gauge
func (r *RuntimeMetrics) Record(ctx context.Context) {
	if r == nil {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.heapAlloc.Record(ctx, int64(m.HeapAlloc))
	r.totalAlloc.Record(ctx, int64(m.TotalAlloc))
	r.gcCount.Record(ctx, int64(m.NumGC))
	r.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}
