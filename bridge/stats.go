package bridge

import (
	"maps"

	"github.com/wippyai/wasm-gl/resource"
)

// StatsSnapshot is a point-in-time copy of a context's counters.
type StatsSnapshot struct {
	Live      map[string]int
	Created   map[string]int
	DrawCalls uint64
}

// LiveTotal sums live objects over every category.
func (s StatsSnapshot) LiveTotal() int {
	var n int
	for _, v := range s.Live {
		n += v
	}
	return n
}

// Stats counts native objects per table category. It is attached to every
// table of a context as an observer.
type Stats struct {
	live      map[string]int
	created   map[string]int
	drawCalls uint64
}

func newStats() *Stats {
	return &Stats{
		live:    make(map[string]int),
		created: make(map[string]int),
	}
}

// OnResourceEvent implements resource.Observer.
func (s *Stats) OnResourceEvent(e resource.Event) {
	switch e.Type {
	case resource.EventCreated:
		s.live[e.Category]++
		s.created[e.Category]++
	case resource.EventRemoved:
		s.live[e.Category]--
	}
}

func (s *Stats) drawCall() {
	s.drawCalls++
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Live:      maps.Clone(s.live),
		Created:   maps.Clone(s.created),
		DrawCalls: s.drawCalls,
	}
}

var _ resource.Observer = (*Stats)(nil)
