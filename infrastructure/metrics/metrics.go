// Package metrics exposes the state of the reward ledger as prometheus
// collectors. The collectors are registered on a private registry that can
// be dumped in the text exposition format for a node exporter's textfile
// collector.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smartrewards"

// Metrics holds the ledger collectors. All methods are safe to call on a nil
// *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	blocks           *prometheus.CounterVec
	lastHeight       prometheus.Gauge
	chainHeight      prometheus.Gauge
	currentRound     prometheus.Gauge
	eligibleEntries  prometheus.Gauge
	eligibleAmount   prometheus.Gauge
	disqualified     prometheus.Gauge
	cachedEntries    prometheus.Gauge
	flushDuration    prometheus.Histogram
	finalizeDuration prometheus.Histogram
}

// New creates the collectors and registers them on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "blocks_total",
			Help:      "Number of blocks applied to or undone from the ledger.",
		}, []string{"action"}),
		lastHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "last_height",
			Help:      "Height of the last block applied to the ledger.",
		}),
		chainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "chain_height",
			Help:      "Height of the chain tip reported by the feed.",
		}),
		currentRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "number",
			Help:      "Number of the open round.",
		}),
		eligibleEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "eligible_entries",
			Help:      "Number of entries eligible in the open round.",
		}),
		eligibleAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "eligible_amount",
			Help:      "Eligible balance of the open round in coins.",
		}),
		disqualified: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "disqualified_entries",
			Help:      "Number of entries disqualified in the open round.",
		}),
		cachedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of entries waiting in the write cache.",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "flush_duration_seconds",
			Help:      "Duration of cache flushes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		finalizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "finalize_duration_seconds",
			Help:      "Duration of round finalizations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.blocks,
		m.lastHeight,
		m.chainHeight,
		m.currentRound,
		m.eligibleEntries,
		m.eligibleAmount,
		m.disqualified,
		m.cachedEntries,
		m.flushDuration,
		m.finalizeDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// BlockConnected records a block applied at height.
func (m *Metrics) BlockConnected(height uint64) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues("connect").Inc()
	m.lastHeight.Set(float64(height))
}

// BlockDisconnected records the undo of the block at height.
func (m *Metrics) BlockDisconnected(height uint64) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues("disconnect").Inc()
	if height > 0 {
		m.lastHeight.Set(float64(height - 1))
	}
}

// SetChainHeight records the chain tip height.
func (m *Metrics) SetChainHeight(height uint64) {
	if m == nil {
		return
	}
	m.chainHeight.Set(float64(height))
}

// SetRound records the state of the open round. eligibleAmount is in coins.
func (m *Metrics) SetRound(number uint32, eligibleEntries uint64, eligibleAmount float64, disqualifiedEntries uint64) {
	if m == nil {
		return
	}
	m.currentRound.Set(float64(number))
	m.eligibleEntries.Set(float64(eligibleEntries))
	m.eligibleAmount.Set(eligibleAmount)
	m.disqualified.Set(float64(disqualifiedEntries))
}

// SetCachedEntries records the size of the write cache.
func (m *Metrics) SetCachedEntries(count int) {
	if m == nil {
		return
	}
	m.cachedEntries.Set(float64(count))
}

// ObserveFlush records the duration of a cache flush.
func (m *Metrics) ObserveFlush(duration time.Duration) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(duration.Seconds())
}

// ObserveFinalize records the duration of a round finalization.
func (m *Metrics) ObserveFinalize(duration time.Duration) {
	if m == nil {
		return
	}
	m.finalizeDuration.Observe(duration.Seconds())
}

// WriteToTextfile writes the current values of all collectors to path in
// the text exposition format. The file is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	err := prometheus.WriteToTextfile(path, m.registry)
	if err != nil {
		return errors.Wrapf(err, "failed writing metrics to %s", path)
	}
	return nil
}
