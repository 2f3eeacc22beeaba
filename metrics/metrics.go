// Package metrics exposes Prometheus instrumentation for validation runs
// and oracle calls.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gaurav-prasanna/clausecheck/core"
)

// Metrics provides observability for the validation pipeline.
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	AnalysesTotal      prometheus.Counter
	OracleCalls        prometheus.Counter
	OracleErrors       prometheus.Counter
	OracleCallDuration prometheus.Histogram
}

// New creates a Metrics instance with all pipeline metrics registered on the
// default registry. Call once per process.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the pipeline metrics on the given registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clausecheck_validations_total",
			Help: "Total validation runs by aggregate status",
		}, []string{"status"}),
		AnalysesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "clausecheck_analyses_total",
			Help: "Total whole-contract analysis runs",
		}),
		OracleCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "clausecheck_oracle_calls_total",
			Help: "Total comparison calls issued to the oracle",
		}),
		OracleErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "clausecheck_oracle_errors_total",
			Help: "Total oracle calls that failed at the transport level",
		}),
		OracleCallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clausecheck_oracle_call_duration_seconds",
			Help:    "Duration of individual oracle comparison calls",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// RecordValidation counts one completed run by status.
func (m *Metrics) RecordValidation(status core.ValidationStatus) {
	m.ValidationsTotal.WithLabelValues(string(status)).Inc()
}

// RecordAnalysis counts one completed whole-contract analysis.
func (m *Metrics) RecordAnalysis() {
	m.AnalysesTotal.Inc()
}

// WrapOracle instruments an Oracle with call counts and latencies.
func (m *Metrics) WrapOracle(next core.Oracle) core.Oracle {
	return &instrumentedOracle{next: next, m: m}
}

type instrumentedOracle struct {
	next core.Oracle
	m    *Metrics
}

func (o *instrumentedOracle) Complete(ctx context.Context, system, user string) (*core.OracleResult, error) {
	start := time.Now()
	result, err := o.next.Complete(ctx, system, user)
	o.m.OracleCalls.Inc()
	o.m.OracleCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		o.m.OracleErrors.Inc()
	}
	return result, err
}
