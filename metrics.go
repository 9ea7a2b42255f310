package main

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/ft8rx/ft8"
)

// Metrics holds the Prometheus collectors for the decode pipeline
type Metrics struct {
	decodesTotal      prometheus.Counter
	failuresTotal     prometheus.Counter
	droppedTotal      prometheus.Counter
	cyclesTotal       prometheus.Counter
	candidatesPerScan prometheus.Gauge
	ncheck0           prometheus.Histogram
	decodeSNR         prometheus.Histogram
	writePtr          prometheus.Gauge
}

// NewMetrics registers the collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		decodesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ft8rx_decodes_total",
			Help: "Successful message decodes",
		}),
		failuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ft8rx_decode_failures_total",
			Help: "Candidates that completed without a message",
		}),
		droppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ft8rx_candidates_dropped_total",
			Help: "Candidates dropped by the per-cycle decode budget",
		}),
		cyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ft8rx_cycles_total",
			Help: "Completed receive cycles",
		}),
		candidatesPerScan: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ft8rx_candidates_last_scan",
			Help: "Candidates produced by the most recent Costas search",
		}),
		ncheck0: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ft8rx_decode_ncheck0",
			Help:    "Initial unsatisfied parity checks of successful decodes",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
		decodeSNR: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ft8rx_decode_snr_db",
			Help:    "SNR of successful decodes",
			Buckets: prometheus.LinearBuckets(-24, 4, 13),
		}),
		writePtr: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ft8rx_spectrogram_write_ptr",
			Help: "Spectrogram write pointer at the last observation",
		}),
	}
}

// ObserveDecode records one successful decode.
func (m *Metrics) ObserveDecode(ev ft8.DecodeEvent) {
	m.decodesTotal.Inc()
	m.ncheck0.Observe(float64(ev.NCheck0))
	m.decodeSNR.Observe(float64(ev.SNR))
}

// ObserveCycle records a cycle summary.
func (m *Metrics) ObserveCycle(s ft8.CycleSummary) {
	m.cyclesTotal.Inc()
	m.failuresTotal.Add(float64(s.Failed))
	m.droppedTotal.Add(float64(s.Dropped))
}

// Serve exposes /metrics until the process exits.
func (m *Metrics) Serve(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("[Metrics] listening on %s", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("[Metrics] listener failed: %v", err)
		}
	}()
}
