// =============================
// File: internal/metrics/metrics.go
// =============================
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the exchange metrics on a private registry so tests can
// create collectors independently. All methods tolerate a nil receiver;
// components that run without metrics just pass nil through.
type Collector struct {
	registry *prometheus.Registry

	trades        *prometheus.CounterVec
	tradeDuration prometheus.Histogram
	migrations    prometheus.Counter
	realBalance   *prometheus.GaugeVec
	pools         prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launchpad_trades_total",
				Help: "Total number of trade attempts",
			},
			[]string{"direction", "status"},
		),
		tradeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "launchpad_trade_duration_seconds",
				Help:    "Duration of trade execution including ledger settlement",
				Buckets: prometheus.LinearBuckets(0, 0.01, 10),
			},
		),
		migrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "launchpad_migrations_total",
				Help: "Total number of completed pool migrations",
			},
		),
		realBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "launchpad_pool_real_balance",
				Help: "Real settlement balance held per pool, in base units",
			},
			[]string{"asset"},
		),
		pools: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "launchpad_pools_active",
				Help: "Number of launched, not yet migrated pools",
			},
		),
	}
	c.registry.MustRegister(c.trades, c.tradeDuration, c.migrations, c.realBalance, c.pools)
	return c
}

func (c *Collector) RecordTrade(direction string, success bool, duration time.Duration) {
	if c == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	c.trades.WithLabelValues(direction, status).Inc()
	c.tradeDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordMigration(asset string) {
	if c == nil {
		return
	}
	c.migrations.Inc()
	c.realBalance.DeleteLabelValues(asset)
	c.pools.Dec()
}

func (c *Collector) SetRealBalance(asset string, amount uint64) {
	if c == nil {
		return
	}
	c.realBalance.WithLabelValues(asset).Set(float64(amount))
}

func (c *Collector) PoolLaunched() {
	if c == nil {
		return
	}
	c.pools.Inc()
}

// Handler exposes the registry for an HTTP scrape endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
