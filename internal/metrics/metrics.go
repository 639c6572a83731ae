package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder receives pipeline events. Implementations must be cheap; the
// pipeline calls them inline.
type Recorder interface {
	RecordFetchAttempt(outcome string)
	RecordPage(rows int)
	RecordCacheLookup(hit bool)
	RecordFetchDuration(seconds float64)
	RecordRun(totalTickers, anomalies, warnings int)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordFetchAttempt(string) {}
func (Noop) RecordPage(int) {}
func (Noop) RecordCacheLookup(bool) {}
func (Noop) RecordFetchDuration(float64) {}
func (Noop) RecordRun(int, int, int) {}

// Prometheus implements Recorder on a private registry so that a batch run
// can push exactly its own series to a Pushgateway.
type Prometheus struct {
	registry      *prometheus.Registry
	fetchAttempts *prometheus.CounterVec
	pageRows      prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	tickers       prometheus.Gauge
	anomalies     prometheus.Gauge
	warnings      prometheus.Gauge
}

// NewPrometheus creates a recorder with all collectors registered.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "volume_anomaly",
				Name:      "fetch_attempts_total",
				Help:      "Upstream fetch attempts by outcome",
			},
			[]string{"outcome"},
		),
		pageRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "volume_anomaly",
			Name:      "page_rows",
			Help:      "Rows returned per upstream page",
			Buckets:   []float64{0, 10, 25, 50, 75, 100},
		}),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "volume_anomaly",
				Name:      "cache_lookups_total",
				Help:      "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "volume_anomaly",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a complete fetch for one date, retries included",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		tickers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "volume_anomaly",
			Name:      "tickers_analyzed",
			Help:      "Tickers present on the analysis date",
		}),
		anomalies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "volume_anomaly",
			Name:      "anomalies_found",
			Help:      "Anomalies reported for the analysis date",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "volume_anomaly",
			Name:      "warnings",
			Help:      "Data sufficiency warnings for the analysis date",
		}),
	}

	p.registry.MustRegister(p.fetchAttempts, p.pageRows, p.cacheLookups, p.fetchDuration,
		p.tickers, p.anomalies, p.warnings)
	return p
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) RecordFetchAttempt(outcome string) {
	p.fetchAttempts.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordPage(rows int) {
	p.pageRows.Observe(float64(rows))
}

func (p *Prometheus) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheLookups.WithLabelValues(result).Inc()
}

func (p *Prometheus) RecordFetchDuration(seconds float64) {
	p.fetchDuration.Observe(seconds)
}

func (p *Prometheus) RecordRun(totalTickers, anomalies, warnings int) {
	p.tickers.Set(float64(totalTickers))
	p.anomalies.Set(float64(anomalies))
	p.warnings.Set(float64(warnings))
}

// Push sends the collected series to a Pushgateway under the given job name.
func (p *Prometheus) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(p.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
