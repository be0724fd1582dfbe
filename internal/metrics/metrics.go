// Package metrics aggregates step durations for pipeline reports.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"matrixci/engine/pkg/types"
)

// Histogram bounds: 1 microsecond to 1 hour, 3 significant figures.
const (
	minTrackableUs = 1
	maxTrackableUs = int64(time.Hour / time.Microsecond)
	sigFigs        = 3
)

// DurationRecorder collects step durations into an HDR histogram. Safe for
// concurrent use by the scheduler's worker goroutines.
type DurationRecorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewDurationRecorder creates an empty recorder.
func NewDurationRecorder() *DurationRecorder {
	return &DurationRecorder{
		hist: hdrhistogram.New(minTrackableUs, maxTrackableUs, sigFigs),
	}
}

// Record adds one step duration. Durations outside the trackable range are
// clamped by the histogram.
func (r *DurationRecorder) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minTrackableUs {
		us = minTrackableUs
	}
	if us > maxTrackableUs {
		us = maxTrackableUs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(us)
}

// Summary renders the recorded durations as a report summary, or nil when
// nothing was recorded.
func (r *DurationRecorder) Summary() *types.DurationSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hist.TotalCount() == 0 {
		return nil
	}

	toMs := func(us int64) float64 { return float64(us) / 1000.0 }

	return &types.DurationSummary{
		Count:  r.hist.TotalCount(),
		MinMs:  toMs(r.hist.Min()),
		MaxMs:  toMs(r.hist.Max()),
		MeanMs: r.hist.Mean() / 1000.0,
		P50Ms:  toMs(r.hist.ValueAtQuantile(50)),
		P90Ms:  toMs(r.hist.ValueAtQuantile(90)),
		P95Ms:  toMs(r.hist.ValueAtQuantile(95)),
		P99Ms:  toMs(r.hist.ValueAtQuantile(99)),
	}
}
