package metrics

import (
	"math"
	"strconv"
	"sync"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/dtw"
	"github.com/orbitswarm/swarmcore/geom")

// DefaultOscillationWindow is the number of recent heading samples kept
// per agent before a score is computed.
const DefaultOscillationWindow = 16

// OscillationDetector flags agents whose heading is bouncing back and
// forth rather than settling, the failure mode design notes cite as
// the reason flocking uses disjoint separation/alignment/cohesion bands
// rather than one smoothly blended zone. It is purely observational: its
// score feeds a metric, never arbitration, so it cannot affect any of
// movement invariants.
//
// Grounded on dtw.DTW: the recent heading-delta sequence is compared
// against a canned all-zero "stable cruise" reference of the same
// length via dynamic time warping, following the same
// Options-plus-DTW(a, b, opts) call shape dtw's own alignment examples
// use for two real signals.
type OscillationDetector struct {
	mu sync.Mutex
	window int
	headings map[agent.ID][]float64
	reference []float64
	opts dtw.Options
	sink MetricsSink
}

// NewOscillationDetector returns a detector with the given window size,
// publishing its score to sink under "flocking.oscillation_score".
func NewOscillationDetector(window int, sink MetricsSink) *OscillationDetector {
	if window < 2 {
		window = DefaultOscillationWindow
	}
	opts := dtw.DefaultOptions()
	opts.MemoryMode = dtw.TwoRows
	return &OscillationDetector{
		window: window,
		headings: make(map[agent.ID][]float64),
		reference: make([]float64, window-1), // stable cruise: zero heading-delta every step
		opts: opts,
		sink: sink,
	}
}

// MetricsSink mirrors scheduler.MetricsSink's shape without importing the
// scheduler package, so metrics has no dependency on it (scheduler
// depends on metrics sinks, not the reverse).
type MetricsSink interface {
	Record(name string, value float64, tags map[string]string)
}

// Observe records one agent's current velocity heading for tick now. Once
// window samples have accumulated, it scores the recent heading-delta
// sequence against the stable-cruise reference and publishes the result.
// A near-zero velocity contributes no heading sample (direction is
// undefined at rest), matching flocking's own zero-velocity handling.
func (d *OscillationDetector) Observe(id agent.ID, velocity geom.Vector, now int64) {
	if geom.Magnitude(velocity) == 0 {
		return
	}
	heading := geom.Angle(velocity)

	d.mu.Lock()
	buf := append(d.headings[id], heading)
	if len(buf) > d.window {
		buf = buf[len(buf)-d.window:]
	}
	d.headings[id] = buf
	ready := len(buf) == d.window
	var deltas []float64
	if ready {
		deltas = make([]float64, len(buf)-1)
		for i := 1; i < len(buf); i++ {
			deltas[i-1] = angularDelta(buf[i], buf[i-1])
		}
	}
	opts := d.opts
	d.mu.Unlock()

	if !ready {
		return
	}
	dist, _, err := dtw.DTW(deltas, d.reference, &opts)
	if err != nil {
		return
	}
	d.sink.Record("flocking.oscillation_score", dist, map[string]string{"agent": strconv.FormatInt(int64(id), 10)})
}

// Reset drops id's accumulated heading history, called when an agent is
// removed from the swarm.
func (d *OscillationDetector) Reset(id agent.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.headings, id)
}

// angularDelta returns the signed shortest-path difference from a to b,
// wrapped to (-pi, pi], so a heading crossing the +-pi seam doesn't read
// as a near-2*pi oscillation.
func angularDelta(b, a float64) float64 {
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
