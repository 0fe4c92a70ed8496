package shard

import (
	"os"

	"github.com/rs/zerolog"
)

type options struct {
	parallel bool
	progress bool
	sink     ProgressSink
	workers  int
	logger   zerolog.Logger
	metrics  *Metrics
	opener   Opener
}

func defaultOptions() options {
	return options{
		parallel: true,
		progress: true,
		logger:   zerolog.Nop(),
		opener:   HDF5,
	}
}

// Option configures a Reader.
type Option func(*options)

// WithParallel selects the parallel load path for sets of more than one
// file. It is on by default.
func WithParallel(parallel bool) Option {
	return func(o *options) { o.parallel = parallel }
}

// WithProgress turns load progress reporting on or off. It is on by
// default.
func WithProgress(progress bool) Option {
	return func(o *options) { o.progress = progress }
}

// WithProgressSink replaces the progress bar on stderr.
func WithProgressSink(sink ProgressSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithWorkers sets the worker count Get uses on the parallel path. Zero
// or less means one per CPU; more than the CPU count is clamped.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger. Loads log at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the collectors the Reader updates. By default each
// Reader gets its own unregistered set.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithOpener replaces the HDF5 backend.
func WithOpener(opener Opener) Option {
	return func(o *options) { o.opener = opener }
}

func (o *options) finish() {
	if o.sink == nil {
		o.sink = BarSink(os.Stderr)
	}
	if !o.progress {
		o.sink = nopSink{}
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	if o.opener == nil {
		o.opener = HDF5
	}
}
