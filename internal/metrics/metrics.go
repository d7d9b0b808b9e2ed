package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcome labels.
const (
	OutcomeDecoded  = "decoded"
	OutcomeNoMRZ    = "no_mrz"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Metrics provides observability for MRZ scans and visa assessments.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Scan outcomes by result
	ScanOutcome *prometheus.CounterVec

	// Full scan latency including OCR
	ScanLatency prometheus.Histogram

	// Scans that fell back to the full frame
	FullFrameFallbacks prometheus.Counter

	// Check digit failures by field
	ChecksumFailures *prometheus.CounterVec

	// Assessments by stay type and level
	Assessments *prometheus.CounterVec

	// Nationalities missing from the rule table
	LookupMisses prometheus.Counter

	// Rule reloads by result
	RuleReloads *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ScanOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrz_scans_total",
			Help: "Total MRZ scans by outcome",
		}, []string{"outcome"}), // outcome: "decoded", "no_mrz", "error", "canceled"

		ScanLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mrz_scan_duration_seconds",
			Help:    "Duration of a full MRZ scan including OCR",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		FullFrameFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "mrz_full_frame_fallbacks_total",
			Help: "Scans retried on the full frame after the bottom band held no MRZ",
		}),

		ChecksumFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrz_checksum_failures_total",
			Help: "Check digit mismatches by field",
		}, []string{"field"}), // field: "passport_number", "birth_date", "expiry_date"

		Assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visa_assessments_total",
			Help: "Visa assessments by stay type and outcome level",
		}, []string{"stay_type", "level"}),

		LookupMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "visa_lookup_misses_total",
			Help: "Assessments whose nationality had no rule entry",
		}),

		RuleReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visa_rule_reloads_total",
			Help: "Rule table reloads by result",
		}, []string{"result"}), // result: "ok", "error"
	}
}

// ObserveScan records the outcome and duration of one scan.
func (m *Metrics) ObserveScan(outcome string, d time.Duration) {
	if m != nil {
		m.ScanOutcome.WithLabelValues(outcome).Inc()
		m.ScanLatency.Observe(d.Seconds())
	}
}

// IncrementFallback records a full-frame retry.
func (m *Metrics) IncrementFallback() {
	if m != nil {
		m.FullFrameFallbacks.Inc()
	}
}

// IncrementChecksumFailure records a check digit mismatch for a field.
func (m *Metrics) IncrementChecksumFailure(field string) {
	if m != nil {
		m.ChecksumFailures.WithLabelValues(field).Inc()
	}
}

// IncrementAssessment records a visa assessment.
func (m *Metrics) IncrementAssessment(stayType, level string) {
	if m != nil {
		m.Assessments.WithLabelValues(stayType, level).Inc()
	}
}

// IncrementLookupMiss records a nationality with no rule entry.
func (m *Metrics) IncrementLookupMiss() {
	if m != nil {
		m.LookupMisses.Inc()
	}
}

// IncrementReload records a rule reload attempt.
func (m *Metrics) IncrementReload(ok bool) {
	if m != nil {
		result := "ok"
		if !ok {
			result = "error"
		}
		m.RuleReloads.WithLabelValues(result).Inc()
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
