package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single, carriage-return refreshed progress line
// for a run over a known number of chunks. Chunks carried over from an
// interrupted run count towards progress but not towards the rate.
type ProgressTracker struct {
	mu sync.Mutex

	w        io.Writer
	now      func() time.Time
	total    int
	interval int

	started  bool
	began    time.Time
	resumed  int // chunks done before Start
	done     int
	reported int
}

// NewProgressTracker reports to w every interval chunks. A nil writer
// discards the output.
func NewProgressTracker(w io.Writer, total, interval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{
		w:        w,
		now:      time.Now,
		total:    total,
		interval: max(interval, 1),
	}
}

// Start begins timing. offset is the number of chunks an earlier run
// already processed; it is not reported on its own.
func (p *ProgressTracker) Start(offset int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = true
	p.began = p.now()
	p.done = min(offset, p.total)
	p.resumed = p.done
	p.reported = p.done
}

// Update sets the number of processed chunks.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(current)
}

func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(p.done + delta)
}

// advance requires p.mu.
func (p *ProgressTracker) advance(current int) {
	if !p.started {
		return
	}
	p.done = min(current, p.total)
	if p.done-p.reported >= p.interval {
		p.print()
		p.reported = p.done
	}
}

// Finish reports completion and ends the progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.done = p.total
	p.print()
	fmt.Fprintln(p.w)
}

func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Elapsed is zero before Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return 0
	}
	return p.now().Sub(p.began)
}

// rate returns the chunks per second of this run. Requires p.mu.
func (p *ProgressTracker) rate() float64 {
	secs := p.now().Sub(p.began).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(p.done-p.resumed) / secs
}

// print requires p.mu.
func (p *ProgressTracker) print() {
	pct := 0.0
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	rate := p.rate()
	line := fmt.Sprintf("\rProgress: %d/%d chunks (%.1f%%) - %.1f chunks/s", p.done, p.total, pct, rate)
	if remaining := p.total - p.done; remaining > 0 && rate > 0 {
		eta := time.Duration(float64(remaining) / rate * float64(time.Second))
		line += fmt.Sprintf(", %s left", eta.Round(time.Second))
	}
	io.WriteString(p.w, line)
}
