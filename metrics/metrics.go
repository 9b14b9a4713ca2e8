// Package metrics exports ledger activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "secledger"

// Collector implements ledger.Observer.
type Collector struct {
	registry *prometheus.Registry

	blocksAppended  prometheus.Counter
	miningAttempts  prometheus.Counter
	miningDuration  prometheus.Histogram
	chainLength     prometheus.Gauge
	verifications   *prometheus.CounterVec
	lastVerifyValid prometheus.Gauge
}

// NewCollector registers the ledger metrics on a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		blocksAppended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_appended_total",
			Help:      "Total number of blocks appended to the chain",
		}),
		miningAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mining_attempts_total",
			Help:      "Total number of hashes computed while mining",
		}),
		miningDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mining_duration_seconds",
			Help:      "Time spent mining a single block",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		chainLength: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_length",
			Help:      "Number of blocks in the chain, genesis included",
		}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Chain verifications by result",
		}, []string{"result"}),
		lastVerifyValid: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_valid",
			Help:      "1 if the last verification found the chain intact, 0 otherwise",
		}),
	}
}

func (c *Collector) ChainLoaded(length int) {
	c.chainLength.Set(float64(length))
}

func (c *Collector) BlockMined(attempts uint64, elapsed time.Duration) {
	c.miningAttempts.Add(float64(attempts))
	c.miningDuration.Observe(elapsed.Seconds())
}

func (c *Collector) BlockAppended(length int) {
	c.blocksAppended.Inc()
	c.chainLength.Set(float64(length))
}

func (c *Collector) ChainVerified(valid bool) {
	if valid {
		c.verifications.WithLabelValues("valid").Inc()
		c.lastVerifyValid.Set(1)
		return
	}
	c.verifications.WithLabelValues("invalid").Inc()
	c.lastVerifyValid.Set(0)
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
