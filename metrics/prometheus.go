package metrics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus")

// PrometheusSink adapts scheduler.MetricsSink onto a prometheus.Registerer,
// the registerer-at-construction shape luxfi-consensus's
// api/metrics.NewMetrics(namespace, registerer) uses, generalized from a
// handful of fixed named counters to an arbitrary, dynamically-discovered
// metric name set: names aren't known until a tick first records
// them, so a GaugeVec per name is created lazily on first use rather than
// all at construction.
type PrometheusSink struct {
	mu sync.Mutex
	namespace string
	registerer prometheus.Registerer
	gauges map[string]*prometheus.GaugeVec
}

// NewPrometheusSink returns a PrometheusSink that registers one GaugeVec
// per distinct metric name under registerer, namespaced by namespace.
func NewPrometheusSink(namespace string, registerer prometheus.Registerer) *PrometheusSink {
	return &PrometheusSink{
		namespace: namespace,
		registerer: registerer,
		gauges: make(map[string]*prometheus.GaugeVec),
	}
}

// Record implements scheduler.MetricsSink. On prometheus.AlreadyRegisteredError
// the existing collector is reused; any other registration failure is
// neither logged nor returned, and the gauge stays unregistered, so its
// values are never exported. MetricsSink.Record has no error return (push
// interface is fire-and-forget); ErrRegistrationFailed is exposed so a
// caller that wants to pre-flight a name can check with Precheck.
func (s *PrometheusSink) Record(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	g, ok := s.gauges[name]
	if !ok {
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name: sanitizeMetricName(name),
			Help: "swarmcore metric " + name,
		}, []string{"tag"})
		if err := s.registerer.Register(g); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				g = are.ExistingCollector.(*prometheus.GaugeVec)
			}
		}
		s.gauges[name] = g
	}
	s.mu.Unlock()

	g.WithLabelValues(tagValue(tags)).Set(value)
}

// Precheck registers name's GaugeVec immediately, returning
// ErrRegistrationFailed wrapped with the underlying cause on an
// unrecoverable collision, so a host can surface a startup error instead
// of discovering it on the first tick.
func (s *PrometheusSink) Precheck(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gauges[name]; ok {
		return nil
	}
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: s.namespace,
		Name: sanitizeMetricName(name),
		Help: "swarmcore metric " + name,
	}, []string{"tag"})
	if err := s.registerer.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.gauges[name] = are.ExistingCollector.(*prometheus.GaugeVec)
			return nil
		}
		return fmt.Errorf("metrics: name=%s: %w: %v", name, ErrRegistrationFailed, err)
	}
	s.gauges[name] = g
	return nil
}

// sanitizeMetricName replaces the dotted metric names
// ("flocking.cohesion") with Prometheus's underscore convention, since
// Prometheus metric names may not contain '.'.
func sanitizeMetricName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// tagValue collapses tags into Prometheus's single "tag" label: the
// first value found (map iteration order is irrelevant here since 
// callers pass at most one tag entry per call — "proposal", "task" or
// "agent").
func tagValue(tags map[string]string) string {
	for _, v := range tags {
		return v
	}
	return ""
}
