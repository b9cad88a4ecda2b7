package chunkbuf

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for chunk pools.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	chunksMapped   prometheus.Counter
	chunksUnmapped prometheus.Counter
	bytesMapped    prometheus.Gauge
	freeChunks     *prometheus.GaugeVec
}

// NewMetrics creates the chunk pool collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		chunksMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chunkbuf_pool_chunks_mapped_total",
			Help: "Total number of chunks mapped by chunk pools",
		}),
		chunksUnmapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chunkbuf_pool_chunks_unmapped_total",
			Help: "Total number of chunks unmapped by chunk pools",
		}),
		bytesMapped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chunkbuf_pool_mapped_bytes",
			Help: "Bytes currently mapped by chunk pools, free or in use",
		}),
		freeChunks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chunkbuf_pool_free_chunks",
				Help: "Number of free chunks per size class",
			},
			[]string{"size_class"},
		),
	}
	reg.MustRegister(m.chunksMapped, m.chunksUnmapped, m.bytesMapped, m.freeChunks)
	return m
}

func (m *Metrics) chunkMapped(size int) {
	if m == nil {
		return
	}
	m.chunksMapped.Inc()
	m.bytesMapped.Add(float64(size))
}

func (m *Metrics) chunkUnmapped(size int) {
	if m == nil {
		return
	}
	m.chunksUnmapped.Inc()
	m.bytesMapped.Sub(float64(size))
}

func (m *Metrics) setFreeChunks(size int, n int) {
	if m == nil {
		return
	}
	m.freeChunks.WithLabelValues(strconv.Itoa(size)).Set(float64(n))
}
