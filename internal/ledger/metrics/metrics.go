package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics provides observability for the ledger module.
// Tracks per-operation outcomes and latency plus lifecycle counters.
type Metrics struct {
	OperationsTotal      *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	LegacyErrors         *prometheus.CounterVec
	IdentitiesRegistered prometheus.Counter
	CredentialsIssued    prometheus.Counter
	DisclosuresApproved  prometheus.Counter
}

// New registers the ledger metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idledger_operations_total",
			Help: "Total number of ledger operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		LegacyErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idledger_legacy_errors_total",
			Help: "Failed operations by the legacy error kind reported to callers",
		}, []string{"operation", "kind"}),
		IdentitiesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "idledger_identities_registered_total",
			Help: "Total number of identities registered",
		}),
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "idledger_credentials_issued_total",
			Help: "Total number of credentials added",
		}),
		DisclosuresApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "idledger_disclosures_approved_total",
			Help: "Total number of disclosure requests approved",
		}),
	}
}

// ObserveOperation records one operation's outcome and duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementLegacyError(operation, kind string) {
	m.LegacyErrors.WithLabelValues(operation, kind).Inc()
}

func (m *Metrics) IncrementIdentitiesRegistered() {
	m.IdentitiesRegistered.Inc()
}

func (m *Metrics) IncrementCredentialsIssued() {
	m.CredentialsIssued.Inc()
}

func (m *Metrics) IncrementDisclosuresApproved() {
	m.DisclosuresApproved.Inc()
}
