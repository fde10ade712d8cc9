package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/vlbi-planner/core"
)

// PlannerCollector bundles Prometheus metrics for observation planning
// and implements core.MetricsRecorder so an Observation can report
// index-engine activity directly.
type PlannerCollector struct {
	gatherer prometheus.Gatherer

	ReindexWalks    *prometheus.CounterVec
	RefsDropped     *prometheus.CounterVec
	ValidationFails prometheus.Counter
	CatalogSkips    *prometheus.CounterVec

	SourceCount    prometheus.Gauge
	TelescopeCount prometheus.Gauge
	FrequencyCount prometheus.Gauge
	ScanCount      prometheus.Gauge
}

// NewPlannerCollector registers planner Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewPlannerCollector(reg prometheus.Registerer) (*PlannerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	walks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vlbi_reindex_walks_total",
		Help: "Total number of scan reindex walks, labeled by entity kind and operation.",
	}, []string{"entity", "op"})
	walks, err := registerCounterVec(reg, walks, "vlbi_reindex_walks_total")
	if err != nil {
		return nil, err
	}

	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vlbi_scan_refs_dropped_total",
		Help: "Total number of scan references dropped by removals or deactivations, labeled by entity kind.",
	}, []string{"entity"})
	dropped, err = registerCounterVec(reg, dropped, "vlbi_scan_refs_dropped_total")
	if err != nil {
		return nil, err
	}

	fails, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vlbi_validation_failures_total",
		Help: "Total number of observation validations that reported a failing condition.",
	}), "vlbi_validation_failures_total")
	if err != nil {
		return nil, err
	}

	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vlbi_catalog_lines_skipped_total",
		Help: "Total number of catalog lines skipped during loading, labeled by catalog kind.",
	}, []string{"catalog"})
	skips, err = registerCounterVec(reg, skips, "vlbi_catalog_lines_skipped_total")
	if err != nil {
		return nil, err
	}

	sources, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vlbi_observation_sources",
		Help: "Current number of sources in the observation.",
	}), "vlbi_observation_sources")
	if err != nil {
		return nil, err
	}
	telescopes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vlbi_observation_telescopes",
		Help: "Current number of telescopes in the observation.",
	}), "vlbi_observation_telescopes")
	if err != nil {
		return nil, err
	}
	frequencies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vlbi_observation_frequencies",
		Help: "Current number of IF channels in the observation.",
	}), "vlbi_observation_frequencies")
	if err != nil {
		return nil, err
	}
	scans, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vlbi_observation_scans",
		Help: "Current number of scans in the observation.",
	}), "vlbi_observation_scans")
	if err != nil {
		return nil, err
	}

	return &PlannerCollector{
		gatherer:        gatherer,
		ReindexWalks:    walks,
		RefsDropped:     dropped,
		ValidationFails: fails,
		CatalogSkips:    skips,
		SourceCount:     sources,
		TelescopeCount:  telescopes,
		FrequencyCount:  frequencies,
		ScanCount:       scans,
	}, nil
}

// ReindexApplied satisfies core.MetricsRecorder.
func (c *PlannerCollector) ReindexApplied(kind core.EntityKind, op string, scansVisited int) {
	if c == nil || c.ReindexWalks == nil {
		return
	}
	c.ReindexWalks.WithLabelValues(string(kind), op).Add(float64(scansVisited))
}

// ScanReferenceDropped satisfies core.MetricsRecorder.
func (c *PlannerCollector) ScanReferenceDropped(kind core.EntityKind) {
	if c == nil || c.RefsDropped == nil {
		return
	}
	c.RefsDropped.WithLabelValues(string(kind)).Inc()
}

// ObserveCounts satisfies core.MetricsRecorder.
func (c *PlannerCollector) ObserveCounts(sources, telescopes, frequencies, scans int) {
	if c == nil {
		return
	}
	if c.SourceCount != nil {
		c.SourceCount.Set(float64(sources))
	}
	if c.TelescopeCount != nil {
		c.TelescopeCount.Set(float64(telescopes))
	}
	if c.FrequencyCount != nil {
		c.FrequencyCount.Set(float64(frequencies))
	}
	if c.ScanCount != nil {
		c.ScanCount.Set(float64(scans))
	}
}

// ValidationFailed records a failed observation validation.
func (c *PlannerCollector) ValidationFailed() {
	if c == nil || c.ValidationFails == nil {
		return
	}
	c.ValidationFails.Inc()
}

// CatalogLinesSkipped records catalog lines skipped during a load.
func (c *PlannerCollector) CatalogLinesSkipped(catalog string, n int) {
	if c == nil || c.CatalogSkips == nil || n <= 0 {
		return
	}
	c.CatalogSkips.WithLabelValues(catalog).Add(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PlannerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
