package shard

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/robert-malhotra/h5shard/ndarray"
)

// Get returns the merged dataset, reading the files on the first call for
// id and serving later calls from the cache. Concurrent first calls share
// one load, and a caller that cancels does not fail the others. A failed
// load is not cached.
func (r *Reader) Get(ctx context.Context, id string) (*ndarray.Array, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	key := canonical(id)
	a, hit, err := r.cache.load(ctx, key, func(ctx context.Context) (*ndarray.Array, error) {
		if r.Parallel() {
			return r.load(ctx, id, ModeParallel, clampWorkers(r.opts.workers))
		}
		return r.load(ctx, id, ModeSerial, 1)
	})
	if hit {
		r.metrics.CacheLookups.WithLabelValues(CacheHit).Inc()
		r.logger.Trace().Str("dataset", key).Msg("cache hit")
	} else {
		r.metrics.CacheLookups.WithLabelValues(CacheMiss).Inc()
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// LoadParallel reads id from every file with up to workers concurrent
// reads and merges the result. It bypasses the cache. The first failing
// file cancels the reads not yet started and fails the load.
func (r *Reader) LoadParallel(ctx context.Context, id string, workers int) (*ndarray.Array, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.load(ctx, id, ModeParallel, clampWorkers(workers))
}

// LoadSerial reads id from every file in order on the calling goroutine
// and merges the result. It bypasses the cache.
func (r *Reader) LoadSerial(ctx context.Context, id string) (*ndarray.Array, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.load(ctx, id, ModeSerial, 1)
}

// clampWorkers maps a requested worker count into [1, NumCPU].
func clampWorkers(n int) int {
	cpus := runtime.NumCPU()
	if n <= 0 || n > cpus {
		return cpus
	}
	return n
}

func (r *Reader) load(ctx context.Context, id, mode string, workers int) (*ndarray.Array, error) {
	start := time.Now()
	files := r.set.Files()
	logger := r.logger.With().
		Str("dataset", id).
		Str("load_id", uuid.New().String()).
		Str("mode", mode).
		Int("files", len(files)).
		Int("workers", workers).
		Logger()
	logger.Debug().Msg("loading dataset")

	progress := r.opts.sink.Start(id, len(files))
	shards := make([]Shard, len(files))
	var err error
	if mode == ModeParallel {
		err = r.readParallel(ctx, id, files, workers, shards, progress)
	} else {
		err = r.readSerial(ctx, id, files, shards, progress)
	}
	progress.Finish()
	elapsed := time.Since(start)
	r.metrics.LoadDuration.WithLabelValues(mode).Observe(elapsed.Seconds())

	if err != nil {
		logger.Debug().Err(err).Dur("elapsed", elapsed).Msg("load failed")
		return nil, err
	}
	present := 0
	for _, s := range shards {
		if s.IsPresent() {
			present++
		}
	}
	logger.Debug().Int("present", present).Dur("elapsed", elapsed).Msg("loaded dataset")
	return merge(id, shards)
}

// readParallel fills shards[i] from files[i]. Each task owns its slot, so
// the result order is the file order whatever order the reads finish in.
// Tasks that start after cancellation return nothing, so the error seen by
// the caller is the read failure or the caller's own context error.
func (r *Reader) readParallel(ctx context.Context, id string, files []string, workers int, shards []Shard, progress Progress) error {
	p := pool.New().
		WithMaxGoroutines(workers).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if ctx.Err() != nil {
				return nil
			}
			s, err := r.ReadShard(path, id)
			if err != nil {
				return err
			}
			shards[i] = s
			progress.Add(1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *Reader) readSerial(ctx context.Context, id string, files []string, shards []Shard, progress Progress) error {
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := r.ReadShard(path, id)
		if err != nil {
			return err
		}
		shards[i] = s
		progress.Add(1)
	}
	return nil
}

// merge concatenates the present shards in order. With no present shard
// the dataset does not exist.
func merge(id string, shards []Shard) (*ndarray.Array, error) {
	parts := make([]*ndarray.Array, 0, len(shards))
	for _, s := range shards {
		if s.IsPresent() {
			parts = append(parts, s.Array())
		}
	}
	if len(parts) == 0 {
		return nil, &DatasetNotFoundError{ID: id}
	}
	a, err := ndarray.Concat(parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "merging %q", id)
	}
	return a, nil
}
