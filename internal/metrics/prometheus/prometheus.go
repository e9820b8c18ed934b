package prometheus

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"daoTracker/internal/metrics"
)

// Sink exports metrics through its own registry, so several sinks (and tests)
// never collide on registration.
type Sink struct {
	logger   *zap.Logger
	types    map[metrics.Type][]metrics.TypeConfig
	registry *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewSink(types map[metrics.Type][]metrics.TypeConfig, logger *zap.Logger) (*Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sink{
		logger:   logger,
		types:    types,
		registry: prometheus.NewRegistry(),

		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	if err := s.initializeTypes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) initializeTypes() error {
	for t, configs := range s.types {
		for _, mt := range configs {
			if s.exists(mt.Name) {
				s.logger.Warn("prometheus metric already exists",
					zap.String("type", string(t)),
					zap.String("name", mt.Name),
				)
				continue
			}
			var collector prometheus.Collector
			switch t {
			case metrics.TypeIncr:
				s.counters[mt.Name] = prometheus.NewCounterVec(prometheus.CounterOpts{Name: mt.Name}, mt.Labels)
				collector = s.counters[mt.Name]
			case metrics.TypeGauge:
				s.gauges[mt.Name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: mt.Name}, mt.Labels)
				collector = s.gauges[mt.Name]
			case metrics.TypeTiming:
				s.histograms[mt.Name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: mt.Name}, mt.Labels)
				collector = s.histograms[mt.Name]
			default:
				return fmt.Errorf("unknown metric type %q", t)
			}
			if err := s.registry.Register(collector); err != nil {
				return fmt.Errorf("register %s: %w", mt.Name, err)
			}
		}
	}
	return nil
}

func (s *Sink) exists(name string) bool {
	_, c := s.counters[name]
	_, g := s.gauges[name]
	_, h := s.histograms[name]
	return c || g || h
}

// Handler serves this sink's registry in the Prometheus text format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

func formatLabels(labels []metrics.Label) prometheus.Labels {
	l := make(prometheus.Labels, len(labels))
	for _, label := range labels {
		l[label.Name] = label.Value
	}
	return l
}

func (s *Sink) expectedLabels(t metrics.Type, name string) []string {
	for _, mt := range s.types[t] {
		if mt.Name == name {
			return mt.Labels
		}
	}
	return nil
}

// checkLabels requires the provided labels to be exactly the declared set.
func (s *Sink) checkLabels(t metrics.Type, name string, provided []metrics.Label) error {
	expected := s.expectedLabels(t, name)
	unexpected := make([]string, 0)
	for _, label := range provided {
		if !slices.Contains(expected, label.Name) {
			unexpected = append(unexpected, label.Name)
		}
	}
	if len(unexpected) > 0 {
		s.logger.Warn("prometheus metric has unexpected labels",
			zap.String("type", string(t)),
			zap.String("name", name),
			zap.Strings("unexpected", unexpected),
		)
		return fmt.Errorf("unexpected labels: '%s'", strings.Join(unexpected, ", "))
	}
	if len(provided) != len(expected) {
		return fmt.Errorf("metric %s expects labels '%s'", name, strings.Join(expected, ", "))
	}
	return nil
}

func (s *Sink) Incr(name string, labels []metrics.Label, value float64) error {
	m, ok := s.counters[name]
	if !ok {
		s.logger.Warn("prometheus counter not found", zap.String("name", name))
		return nil
	}
	if err := s.checkLabels(metrics.TypeIncr, name, labels); err != nil {
		return err
	}
	m.With(formatLabels(labels)).Add(value)
	return nil
}

func (s *Sink) Gauge(name string, value float64, labels []metrics.Label) error {
	m, ok := s.gauges[name]
	if !ok {
		s.logger.Warn("prometheus gauge not found", zap.String("name", name))
		return nil
	}
	if err := s.checkLabels(metrics.TypeGauge, name, labels); err != nil {
		return err
	}
	m.With(formatLabels(labels)).Set(value)
	return nil
}

func (s *Sink) Timing(name string, value time.Duration, labels []metrics.Label) error {
	m, ok := s.histograms[name]
	if !ok {
		s.logger.Warn("prometheus histogram not found", zap.String("name", name))
		return nil
	}
	if err := s.checkLabels(metrics.TypeTiming, name, labels); err != nil {
		return err
	}
	m.With(formatLabels(labels)).Observe(float64(value.Milliseconds()))
	return nil
}
