package assess

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Remote calls made during an assessment.
const (
	CallEnrich  = "enrich"
	CallExplain = "explain"
)

// Outcomes of a remote call.
const (
	OutcomeOK        = "ok"
	OutcomeSkipped   = "skipped"
	OutcomeTimeout   = "timeout"
	OutcomeCanceled  = "canceled"
	OutcomeMalformed = "malformed"
	OutcomeUnsafe    = "unsafe"
	OutcomeError     = "error"
)

// Hooks observe the supervisor. Nil funcs are skipped.
type Hooks struct {
	OnRemoteCall func(call, outcome string, duration time.Duration)
	OnComplete   func(r *Result)
}

func (h Hooks) remoteCall(call, outcome string, d time.Duration) {
	if h.OnRemoteCall != nil {
		h.OnRemoteCall(call, outcome, d)
	}
}

func (h Hooks) complete(r *Result) {
	if h.OnComplete != nil {
		h.OnComplete(r)
	}
}

// Metrics holds Prometheus metrics for assessments.
type Metrics struct {
	AssessmentsTotal   *prometheus.CounterVec
	AssessmentDuration *prometheus.HistogramVec
	TriageScore        prometheus.Histogram
	RedFlagsTotal      prometheus.Counter
	RemoteCallsTotal   *prometheus.CounterVec
	RemoteDuration     *prometheus.HistogramVec
}

// NewMetrics registers and returns assessment metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firstline_assessments_total",
			Help: "Total assessments by priority and whether the offline path was used.",
		}, []string{"priority", "offline"}),
		AssessmentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "firstline_assessment_duration_seconds",
			Help:    "Duration of assessments in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms .. ~16s
		}, []string{"offline"}),
		TriageScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "firstline_triage_score",
			Help:    "Triage score per assessment.",
			Buckets: prometheus.LinearBuckets(0, 1, 14), // 0 .. 13
		}),
		RedFlagsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "firstline_red_flags_total",
			Help: "Assessments decided by a red flag.",
		}),
		RemoteCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "firstline_remote_calls_total",
			Help: "Remote enrichment and explanation calls by outcome.",
		}, []string{"call", "outcome"}),
		RemoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "firstline_remote_call_duration_seconds",
			Help:    "Duration of remote calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"call"}),
	}

	reg.MustRegister(
		m.AssessmentsTotal,
		m.AssessmentDuration,
		m.TriageScore,
		m.RedFlagsTotal,
		m.RemoteCallsTotal,
		m.RemoteDuration,
	)

	return m
}

// Hooks returns Hooks that update the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnRemoteCall: func(call, outcome string, d time.Duration) {
			m.RemoteCallsTotal.WithLabelValues(call, outcome).Inc()
			if outcome != OutcomeSkipped {
				m.RemoteDuration.WithLabelValues(call).Observe(d.Seconds())
			}
		},
		OnComplete: func(r *Result) {
			offline := "false"
			if r.UsedOffline {
				offline = "true"
			}
			m.AssessmentsTotal.WithLabelValues(string(r.Triage.Priority), offline).Inc()
			m.AssessmentDuration.WithLabelValues(offline).Observe(r.Duration)
			m.TriageScore.Observe(float64(r.Triage.Score))
			if r.Triage.RedFlagsDetected {
				m.RedFlagsTotal.Inc()
			}
		},
	}
}
