package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robinvdvleuten/expenses/ledger"
)

// metrics exports the aggregates of the currently loaded ledger. Each server
// owns its registry so tests can run servers side by side.
type metrics struct {
	registry *prometheus.Registry

	records    prometheus.Gauge
	total      prometheus.Gauge
	limit      prometheus.Gauge
	overLimit  prometheus.Gauge
	categories *prometheus.GaugeVec
	months     *prometheus.GaugeVec
	reloads    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "expenses",
			Name:      "records",
			Help:      "Number of records in the loaded ledger.",
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "expenses",
			Name:      "total_amount",
			Help:      "Grand total of the loaded ledger.",
		}),
		limit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "expenses",
			Name:      "monthly_limit",
			Help:      "Configured monthly limit.",
		}),
		overLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "expenses",
			Name:      "over_limit",
			Help:      "1 when the grand total exceeds the monthly limit.",
		}),
		categories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "expenses",
			Name:      "category_total_amount",
			Help:      "Running total per category.",
		}, []string{"category"}),
		months: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "expenses",
			Name:      "month_total_amount",
			Help:      "Running total per month name.",
		}, []string{"month"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "expenses",
			Name:      "reloads_total",
			Help:      "Ledger loads by outcome (ok, partial, error).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.records,
		m.total,
		m.limit,
		m.overLimit,
		m.categories,
		m.months,
		m.reloads,
	)
	return m
}

// observe replaces all gauges with the state of l.
func (m *metrics) observe(l *ledger.Ledger) {
	totals := l.TotalExpenses()

	m.records.Set(float64(l.Len()))
	m.total.Set(totals.Total.InexactFloat64())
	m.limit.Set(totals.MonthlyLimit.InexactFloat64())
	if totals.OverLimit {
		m.overLimit.Set(1)
	} else {
		m.overLimit.Set(0)
	}

	m.categories.Reset()
	for category, amount := range l.CategoryReport() {
		m.categories.WithLabelValues(category).Set(amount.InexactFloat64())
	}

	m.months.Reset()
	for month, amount := range l.MonthlyReport() {
		m.months.WithLabelValues(month).Set(amount.InexactFloat64())
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
