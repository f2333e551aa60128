package consumers

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/file2text/internal/progress"
)

// Prometheus mirrors one emitter into gauges and counters. Every collector
// carries a constant "operation" label so several emitters can share a
// registry.
type Prometheus struct {
	current     prometheus.Gauge
	total       prometheus.Gauge
	ratio       prometheus.Gauge
	updates     *prometheus.CounterVec
	completions prometheus.Counter
}

// NewPrometheus registers the collectors against reg, or the default
// registerer when reg is nil.
func NewPrometheus(reg prometheus.Registerer, operation string) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"operation": operation}
	p := &Prometheus{
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "file2text_progress_current",
			Help:        "Units completed by the tracked operation.",
			ConstLabels: labels,
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "file2text_progress_total",
			Help:        "Expected units of the tracked operation; -1 while unknown.",
			ConstLabels: labels,
		}),
		ratio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "file2text_progress_ratio",
			Help:        "Completed fraction of the tracked operation, between 0 and 1.",
			ConstLabels: labels,
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "file2text_progress_updates_total",
			Help:        "Delivered progress updates partitioned by type.",
			ConstLabels: labels,
		}, []string{"type"}),
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "file2text_progress_completions_total",
			Help:        "Completed operations.",
			ConstLabels: labels,
		}),
	}
	for _, collector := range []prometheus.Collector{
		p.current,
		p.total,
		p.ratio,
		p.updates,
		p.completions,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return p, nil
}

// OnProgress implements progress.Consumer.
func (p *Prometheus) OnProgress(u progress.Update) error {
	p.updates.WithLabelValues(u.Type.String()).Inc()
	p.observe(u.State)
	return nil
}

// OnComplete implements progress.Consumer.
func (p *Prometheus) OnComplete(s progress.State) error {
	p.completions.Inc()
	p.observe(s)
	if s.IsIndeterminate() {
		p.ratio.Set(1)
	}
	return nil
}

func (p *Prometheus) observe(s progress.State) {
	p.current.Set(float64(s.Current()))
	n, ok := s.Total().Value()
	if !ok {
		p.total.Set(-1)
		return
	}
	p.total.Set(float64(n))
	if pct, ok := s.Percentage(); ok {
		p.ratio.Set(pct / 100)
	}
}
