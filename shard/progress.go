package shard

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v2"
)

// ProgressSink receives load progress. Start is called once per load with
// the number of files to read; the returned Progress gets one Add per file
// read and a Finish when the load ends, successful or not.
type ProgressSink interface {
	Start(description string, total int) Progress
}

// Progress tracks one load.
type Progress interface {
	Add(n int)
	Finish()
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(description string, total int) Progress

// Start calls f(description, total).
func (f ProgressFunc) Start(description string, total int) Progress { return f(description, total) }

type barSink struct {
	w io.Writer
}

// BarSink draws a text progress bar on w.
func BarSink(w io.Writer) ProgressSink {
	return barSink{w: w}
}

func (s barSink) Start(description string, total int) Progress {
	return &bar{
		w: s.w,
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(s.w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(30),
		),
	}
}

// bar serializes calls from concurrent workers.
type bar struct {
	mu  sync.Mutex
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (b *bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Add(n)
}

func (b *bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
	_, _ = io.WriteString(b.w, "\n")
}

type nopSink struct{}

func (nopSink) Start(string, int) Progress { return nopProgress{} }

type nopProgress struct{}

func (nopProgress) Add(int) {}
func (nopProgress) Finish() {}
