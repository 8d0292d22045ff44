package runtime

import (
	"context"
	"time"
)

// FrameSource paces a run loop. Next blocks until the next frame is due
// and returns its time in seconds, or false when no frame will follow.
// It must return false promptly once ctx is done.
type FrameSource interface {
	Next(ctx context.Context) (float64, bool)
}

// IntervalSource ticks at a fixed period. Frame times are seconds since
// the first call to Next.
type IntervalSource struct {
	interval time.Duration
	ticker   *time.Ticker
	start    time.Time
}

// NewIntervalSource returns a source ticking every d. A non-positive d
// uses DefaultFrameInterval.
func NewIntervalSource(d time.Duration) *IntervalSource {
	if d <= 0 {
		d = DefaultFrameInterval
	}
	return &IntervalSource{interval: d}
}

func (s *IntervalSource) Next(ctx context.Context) (float64, bool) {
	if s.ticker == nil {
		s.ticker = time.NewTicker(s.interval)
		s.start = time.Now()
	}
	select {
	case <-ctx.Done():
		s.Stop()
		return 0, false
	case now := <-s.ticker.C:
		return now.Sub(s.start).Seconds(), true
	}
}

// Stop releases the ticker. Next restarts it.
func (s *IntervalSource) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// ManualSource emits exactly the times sent on it. Closing it ends the
// run loop.
type ManualSource chan float64

func (s ManualSource) Next(ctx context.Context) (float64, bool) {
	select {
	case <-ctx.Done():
		return 0, false
	case t, ok := <-s:
		return t, ok
	}
}

// Times returns a closed ManualSource preloaded with ts.
func Times(ts ...float64) ManualSource {
	s := make(ManualSource, len(ts))
	for _, t := range ts {
		s <- t
	}
	close(s)
	return s
}

// SourceFunc adapts a function to FrameSource.
type SourceFunc func(ctx context.Context) (float64, bool)

func (f SourceFunc) Next(ctx context.Context) (float64, bool) { return f(ctx) }
