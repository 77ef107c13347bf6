// Package metrics supplies the scheduler.MetricsSink implementations a
// host chooses between: an in-memory running-average sink with no
// external dependency, a Prometheus-backed sink for hosts that scrape
// rather than poll, and an oscillation diagnostic built on top of either.
package metrics

import "sync"

// Stat is one metric name's running aggregate: a Welford-style online
// mean/variance plus the most recent instantaneous value, the same
// accumulate-then-finalize shape matrix/impl_statistics.go's
// CenterColumns/Covariance use for their own single-pass column
// statistics, specialized here to a scalar stream instead of a matrix
// column.
type Stat struct {
	Count int64
	Mean float64
	Variance float64
	Last float64
}

type accumulator struct {
	count int64
	mean float64
	m2 float64
	last float64
}

func (a *accumulator) update(x float64) {
	a.count++
	delta := x - a.mean
	a.mean += delta / float64(a.count)
	delta2 := x - a.mean
	a.m2 += delta * delta2
	a.last = x
}

func (a *accumulator) snapshot() Stat {
	variance := 0.0
	if a.count > 1 {
		variance = a.m2 / float64(a.count-1)
	}
	return Stat{Count: a.count, Mean: a.mean, Variance: variance, Last: a.last}
}

// InMemorySink accumulates every recorded sample into a running mean and
// variance per metric name (quoting: "all are running averages or
// incremental counts") — tags are accepted for interface compatibility
// but do not subdivide the aggregate; a host that needs per-tag breakouts
// should pass a distinct name per breakout instead.
type InMemorySink struct {
	mu sync.RWMutex
	stats map[string]*accumulator
}

// NewInMemorySink returns an empty InMemorySink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{stats: make(map[string]*accumulator)}
}

// Record implements scheduler.MetricsSink.
func (s *InMemorySink) Record(name string, value float64, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.stats[name]
	if !ok {
		acc = &accumulator{}
		s.stats[name] = acc
	}
	acc.update(value)
}

// Snapshot returns a point-in-time copy of every metric's running
// aggregate, keyed by name.
func (s *InMemorySink) Snapshot() map[string]Stat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Stat, len(s.stats))
	for name, acc := range s.stats {
		out[name] = acc.snapshot()
	}
	return out
}

// Get returns the running aggregate for one metric name, or the zero
// Stat and false if nothing has been recorded under it yet.
func (s *InMemorySink) Get(name string) (Stat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.stats[name]
	if !ok {
		return Stat{}, false
	}
	return acc.snapshot(), true
}
