package metrics_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/metrics"
)

type recordingSink struct {
	mu     sync.Mutex
	scores []float64
}

func (r *recordingSink) Record(name string, value float64, _ map[string]string) {
	if name != "flocking.oscillation_score" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, value)
}

func (r *recordingSink) last() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scores) == 0 {
		return 0, false
	}
	return r.scores[len(r.scores)-1], true
}

func TestOscillationDetectorStaysQuietUntilWindowFills(t *testing.T) {
	sink := &recordingSink{}
	d := metrics.NewOscillationDetector(4, sink)

	for i := 0; i < 3; i++ {
		d.Observe(1, geom.Vector{X: 1, Y: 0}, int64(i))
	}
	_, ok := sink.last()
	require.False(t, ok, "fewer than window samples must not yet score")
}

func TestOscillationDetectorScoresStableHeadingNearZero(t *testing.T) {
	sink := &recordingSink{}
	d := metrics.NewOscillationDetector(4, sink)

	for i := 0; i < 6; i++ {
		d.Observe(1, geom.Vector{X: 1, Y: 0}, int64(i))
	}
	score, ok := sink.last()
	require.True(t, ok)
	require.InDelta(t, 0, score, 1e-9, "a constant heading matches the stable-cruise reference exactly")
}

func TestOscillationDetectorScoresOscillatingHeadingHigher(t *testing.T) {
	stableSink := &recordingSink{}
	stable := metrics.NewOscillationDetector(4, stableSink)
	for i := 0; i < 6; i++ {
		stable.Observe(1, geom.Vector{X: 1, Y: 0}, int64(i))
	}
	stableScore, ok := stableSink.last()
	require.True(t, ok)

	oscillatingSink := &recordingSink{}
	oscillating := metrics.NewOscillationDetector(4, oscillatingSink)
	headings := []geom.Vector{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	for i, h := range headings {
		oscillating.Observe(1, h, int64(i))
	}
	oscillatingScore, ok := oscillatingSink.last()
	require.True(t, ok)

	require.Greater(t, oscillatingScore, stableScore)
}

func TestOscillationDetectorIgnoresZeroVelocity(t *testing.T) {
	sink := &recordingSink{}
	d := metrics.NewOscillationDetector(4, sink)
	for i := 0; i < 10; i++ {
		d.Observe(1, geom.Vector{}, int64(i))
	}
	_, ok := sink.last()
	require.False(t, ok, "a stationary agent has no heading to score")
}

func TestOscillationDetectorResetDropsHistory(t *testing.T) {
	sink := &recordingSink{}
	d := metrics.NewOscillationDetector(4, sink)
	for i := 0; i < 4; i++ {
		d.Observe(1, geom.Vector{X: 1, Y: 0}, int64(i))
	}
	_, ok := sink.last()
	require.True(t, ok)

	d.Reset(1)
	sink.scores = nil
	d.Observe(1, geom.Vector{X: 1, Y: 0}, 100)
	_, ok = sink.last()
	require.False(t, ok, "after reset, history must rebuild from scratch")
}
