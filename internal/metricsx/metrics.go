// Package metricsx registers the service's Prometheus instruments.
package metricsx

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report load outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

type Metrics struct {
	registry    *prometheus.Registry
	reportLoads *prometheus.CounterVec
	exports     prometheus.Counter
	linksBuilt  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reportLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_loads_total",
		Help: "Affiliate report loads by outcome.",
	}, []string{"outcome"})
	exports := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_exports_total",
		Help: "CSV exports served.",
	})
	linksBuilt := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "affiliate_links_built_total",
		Help: "Affiliate search links built, by chosen provider.",
	}, []string{"provider"})
	registry.MustRegister(reportLoads, exports, linksBuilt)

	return &Metrics{
		registry:    registry,
		reportLoads: reportLoads,
		exports:     exports,
		linksBuilt:  linksBuilt,
	}
}

func (m *Metrics) ObserveReportLoad(outcome string) {
	m.reportLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncExport() { m.exports.Inc() }

func (m *Metrics) IncLinksBuilt(provider string) {
	m.linksBuilt.WithLabelValues(provider).Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
