// Package loader batches per-author book count lookups made while resolving
// a single GraphQL operation.
package loader

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const DefaultWait = 2 * time.Millisecond

var (
	batchesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookcount_loader_batches_total",
		Help: "The total number of batched book count fetches.",
	})

	batchSizeHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookcount_loader_batch_keys",
		Help:    "The number of author names in each book count batch.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
	})

	fetchFailuresCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookcount_loader_fetch_failures_total",
		Help: "The total number of book count batches whose fetch failed.",
	})
)

// Counter is the datastore query the loader coalesces requests into.
type Counter interface {
	CountBooksGroupedByAuthorNames(ctx context.Context, names []string) (map[string]int, error)
}

type Config struct {
	// Wait is how long the loader collects keys before dispatching a batch.
	Wait time.Duration
	// MaxBatch caps the keys per fetch. Zero means unbounded.
	MaxBatch int
}

// BookCount resolves the number of books per author name. Each key is
// fetched at most once for the lifetime of the instance, so one instance
// must not outlive the request it was created for.
type BookCount struct {
	loader *dataloader.Loader[string, int]
}

func NewBookCount(counter Counter, cfg Config, logger *zap.Logger) *BookCount {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}

	opts := []dataloader.Option[string, int]{
		dataloader.WithWait[string, int](cfg.Wait),
	}
	if cfg.MaxBatch > 0 {
		opts = append(opts, dataloader.WithBatchCapacity[string, int](cfg.MaxBatch))
	}

	return &BookCount{
		loader: dataloader.NewBatchedLoader(batchFunc(counter, logger), opts...),
	}
}

// Load returns the book count for the author name. Unknown authors count 0.
func (l *BookCount) Load(ctx context.Context, name string) (int, error) {
	return l.loader.Load(ctx, name)()
}

// Enqueue schedules names for the next batch without waiting on the result.
func (l *BookCount) Enqueue(ctx context.Context, names []string) {
	if len(names) == 0 {
		return
	}
	l.loader.LoadMany(ctx, names)
}

func batchFunc(counter Counter, logger *zap.Logger) dataloader.BatchFunc[string, int] {
	return func(ctx context.Context, names []string) []*dataloader.Result[int] {
		batchesCounter.Inc()
		batchSizeHistogram.Observe(float64(len(names)))

		results := make([]*dataloader.Result[int], len(names))

		counts, err := counter.CountBooksGroupedByAuthorNames(ctx, names)
		if err != nil {
			fetchFailuresCounter.Inc()
			logger.Error("book count batch failed",
				zap.Int("keys", len(names)),
				zap.Error(err),
			)
			for i := range results {
				results[i] = &dataloader.Result[int]{Error: err}
			}
			return results
		}

		for i, name := range names {
			results[i] = &dataloader.Result[int]{Data: counts[name]}
		}
		return results
	}
}
