// Package dataloader coalesces single-key lookups into batched fetches.
//
// A loader keeps one open batch. Keys are appended to it until the batch is
// dispatched, which happens exactly once: either when the first thunk that
// belongs to the batch is called, or when the optional wait timer fires.
// graphql-go resolves thunks breadth-first after every sibling resolver at
// the current depth has run, so calling the first thunk is the natural end
// of the batch window.
//
// Loaders are scoped to one GraphQL operation. Their cache never outlives it.
package dataloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"comics-graphql/internal/apperror"
	"comics-graphql/internal/logging"
	"comics-graphql/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrClosed is returned by loads issued after the owning registry released
// the loader.
var ErrClosed = errors.New("dataloader: loader is closed")

// Options configures a loader.
type Options struct {
	// Name labels logs, spans and metrics.
	Name string
	// Wait, when positive, dispatches an open batch after this long even if
	// no thunk has been called. Zero means dispatch on first thunk call only.
	Wait time.Duration
	// Stats, when set, accumulates cache and dispatch counters.
	Stats *Stats
}

// Stats aggregates counters across the loaders of one operation.
type Stats struct {
	hits       atomic.Int64
	misses     atomic.Int64
	dispatches atomic.Int64
	failures   atomic.Int64
}

// Hits counts loads answered by a key already in the cache.
func (s *Stats) Hits() int64 { return s.hits.Load() }

// Misses counts loads that added a new key to a batch.
func (s *Stats) Misses() int64 { return s.misses.Load() }

// Dispatches counts fetch calls.
func (s *Stats) Dispatches() int64 { return s.dispatches.Load() }

// Failures counts fetch calls that returned an error.
func (s *Stats) Failures() int64 { return s.failures.Load() }

// batch is one dispatch unit. keys is only appended while the batch is the
// batcher's open batch; results and err are only read after done is closed.
type batch[K comparable, R any] struct {
	keys    []K
	results map[K]R
	err     error
	done    chan struct{}
	started atomic.Bool
	timer   *time.Timer
}

func newBatch[K comparable, R any]() *batch[K, R] {
	return &batch[K, R]{done: make(chan struct{})}
}

// batcher is the engine shared by Loader and ParentLoader. R is the per-key
// result type; fetch returns results for any subset of the requested keys.
type batcher[K comparable, R any] struct {
	opts  Options
	fetch func(ctx context.Context, keys []K) (map[K]R, int, error)

	mu     sync.Mutex
	cache  map[K]*batch[K, R]
	open   *batch[K, R]
	closed bool
}

func newBatcher[K comparable, R any](opts Options, fetch func(context.Context, []K) (map[K]R, int, error)) *batcher[K, R] {
	if opts.Name == "" {
		opts.Name = "loader"
	}
	return &batcher[K, R]{
		opts:  opts,
		fetch: fetch,
		cache: make(map[K]*batch[K, R]),
	}
}

// enqueue registers key in the open batch, or returns the batch that already
// holds it.
func (b *batcher[K, R]) enqueue(ctx context.Context, key K) (*batch[K, R], error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if existing, ok := b.cache[key]; ok {
		b.mu.Unlock()
		b.recordHit(ctx)
		return existing, nil
	}

	if b.open == nil {
		open := newBatch[K, R]()
		if b.opts.Wait > 0 {
			dispatchCtx := ctx
			open.timer = time.AfterFunc(b.opts.Wait, func() {
				// An aborted operation leaves the batch to any live waiter.
				if dispatchCtx.Err() != nil {
					return
				}
				b.dispatch(dispatchCtx, open)
			})
		}
		b.open = open
	}
	bt := b.open
	bt.keys = append(bt.keys, key)
	b.cache[key] = bt
	b.mu.Unlock()

	b.recordMiss(ctx)
	return bt, nil
}

// await dispatches bt if nobody has yet and waits for its outcome. A caller
// whose context is already done never starts a fetch, and one whose context
// ends while waiting gets ctx.Err(); a fetch already running still completes
// and its result is dropped for that caller.
func (b *batcher[K, R]) await(ctx context.Context, bt *batch[K, R], key K) (R, bool, error) {
	var zero R
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	b.dispatch(ctx, bt)

	select {
	case <-bt.done:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	if bt.err != nil {
		return zero, false, bt.err
	}
	value, ok := bt.results[key]
	return value, ok, nil
}

// dispatch runs bt's fetch on the first call and returns immediately on
// every later one, so waiters never block behind a running fetch.
func (b *batcher[K, R]) dispatch(ctx context.Context, bt *batch[K, R]) {
	if !bt.started.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	if b.open == bt {
		b.open = nil
	}
	b.mu.Unlock()
	if bt.timer != nil {
		bt.timer.Stop()
	}
	b.run(context.WithoutCancel(ctx), bt)
	close(bt.done)
}

func (b *batcher[K, R]) run(ctx context.Context, bt *batch[K, R]) {
	name := b.opts.Name
	tracer := otel.Tracer("comics-graphql/dataloader")
	ctx, span := tracer.Start(ctx, "dataloader.fetch")
	span.SetAttributes(
		attribute.String("dataloader.name", name),
		attribute.Int("dataloader.keys", len(bt.keys)),
	)
	defer span.End()

	if b.opts.Stats != nil {
		b.opts.Stats.dispatches.Add(1)
	}

	start := time.Now()
	results, rows, err := b.safeFetch(ctx, bt.keys)
	duration := time.Since(start)

	metrics := observability.GraphQLMetricsFromContext(ctx)
	if metrics != nil {
		metrics.RecordBatchSize(ctx, int64(len(bt.keys)), name)
		metrics.RecordBatchResultRows(ctx, int64(rows), name)
		metrics.RecordBatchQueriesSaved(ctx, int64(len(bt.keys)-1), name)
	}

	logger := logging.FromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if metrics != nil {
			metrics.RecordBatchFailure(ctx, name)
		}
		if b.opts.Stats != nil {
			b.opts.Stats.failures.Add(1)
		}
		logger.Error("batch fetch failed",
			slog.String("loader", name),
			slog.Int("keys", len(bt.keys)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		bt.err = apperror.MarkLogged(fmt.Errorf("%s: %w", name, err))
		return
	}

	span.SetAttributes(attribute.Int("dataloader.rows", rows))
	logger.Debug("batch fetched",
		slog.String("loader", name),
		slog.Int("keys", len(bt.keys)),
		slog.Int("rows", rows),
		slog.Duration("duration", duration),
	)
	bt.results = results
}

// safeFetch turns a panicking fetch function into an ordinary batch failure.
func (b *batcher[K, R]) safeFetch(ctx context.Context, keys []K) (results map[K]R, rows int, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, rows, err = nil, 0, fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return b.fetch(ctx, keys)
}

// prime stores a settled result for key unless the key is already cached.
func (b *batcher[K, R]) prime(key K, value R) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if _, ok := b.cache[key]; ok {
		return false
	}
	bt := newBatch[K, R]()
	bt.keys = []K{key}
	bt.results = map[K]R{key: value}
	bt.started.Store(true)
	close(bt.done)
	b.cache[key] = bt
	return true
}

// close refuses further loads and drops the cache. Batches already handed
// to thunks stay valid for those thunks.
func (b *batcher[K, R]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.open != nil && b.open.timer != nil {
		b.open.timer.Stop()
	}
	b.open = nil
	b.cache = nil
}

func (b *batcher[K, R]) recordHit(ctx context.Context) {
	if b.opts.Stats != nil {
		b.opts.Stats.hits.Add(1)
	}
	if metrics := observability.GraphQLMetricsFromContext(ctx); metrics != nil {
		metrics.RecordBatchCacheHit(ctx, b.opts.Name)
	}
}

func (b *batcher[K, R]) recordMiss(ctx context.Context) {
	if b.opts.Stats != nil {
		b.opts.Stats.misses.Add(1)
	}
	if metrics := observability.GraphQLMetricsFromContext(ctx); metrics != nil {
		metrics.RecordBatchCacheMiss(ctx, b.opts.Name)
	}
}
