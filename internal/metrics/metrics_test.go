package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NotPanics(t, func() {
		m.SessionOpened()
		m.BlockCache(true)
		m.Decompressed(10)
		m.Record("display")
		m.RecordError("decompression error")
		m.SessionClosed()
	})
}

func TestSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.SessionOpened()
	b.SessionOpened()
	a.BlockCache(false)
	b.BlockCache(true)
	b.BlockCache(true)
	a.Decompressed(4084)
	a.Record("display")
	b.Record("display")
	b.RecordError("corrupt data")
	b.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.sessionsOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.blockCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.blockCacheMisses))
	assert.Equal(t, 4084.0, testutil.ToFloat64(b.decompressedBytes))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.records.WithLabelValues("display")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.recordErrors.WithLabelValues("corrupt data")))
}

func TestConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_open",
		Help:      "Number of open help file sessions",
	}))
	_, err := New(reg)
	assert.Error(t, err)
}
