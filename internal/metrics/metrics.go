// Package metrics exposes Prometheus counters for help file sessions. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hlpkit"

// Metrics is shared by every session opened against the same registerer.
type Metrics struct {
	sessionsOpen      prometheus.Gauge
	blockCacheHits    prometheus.Counter
	blockCacheMisses  prometheus.Counter
	decompressedBytes prometheus.Counter
	records           *prometheus.CounterVec
	recordErrors      *prometheus.CounterVec
}

// New registers the collectors with reg, reusing collectors a previous
// call registered. A nil reg returns nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{}
	var err error
	if m.sessionsOpen, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_open",
		Help:      "Number of open help file sessions",
	})); err != nil {
		return nil, err
	}
	if m.blockCacheHits, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topic_block_cache_hits_total",
		Help:      "Decompressed topic blocks served from the block cache",
	})); err != nil {
		return nil, err
	}
	if m.blockCacheMisses, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topic_block_cache_misses_total",
		Help:      "Topic blocks that had to be decompressed",
	})); err != nil {
		return nil, err
	}
	if m.decompressedBytes, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topic_decompressed_bytes_total",
		Help:      "Bytes produced by LZ77 decompression of topic blocks",
	})); err != nil {
		return nil, err
	}
	if m.records, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topic_records_total",
		Help:      "Topic records decoded, by record type",
	}, []string{"type"})); err != nil {
		return nil, err
	}
	if m.recordErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topic_record_errors_total",
		Help:      "Topic records skipped, by failure kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var e prometheus.AlreadyRegisteredError
		if errors.As(err, &e) {
			if existing, ok := e.ExistingCollector.(C); ok {
				return existing, nil
			}
			return c, fmt.Errorf("metrics: collector already registered with another type: %w", err)
		}
		return c, fmt.Errorf("metrics: %w", err)
	}
	return c, nil
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.sessionsOpen.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.sessionsOpen.Dec()
	}
}

// BlockCache counts one cache lookup.
func (m *Metrics) BlockCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.blockCacheHits.Inc()
	} else {
		m.blockCacheMisses.Inc()
	}
}

func (m *Metrics) Decompressed(n int) {
	if m != nil {
		m.decompressedBytes.Add(float64(n))
	}
}

func (m *Metrics) Record(typ string) {
	if m != nil {
		m.records.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) RecordError(kind string) {
	if m != nil {
		m.recordErrors.WithLabelValues(kind).Inc()
	}
}
