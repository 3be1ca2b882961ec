package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the nexus transfer module.
type Metrics struct {
	RequestsCreated  prometheus.Counter
	RequestsAccepted prometheus.Counter
	RequestsRejected prometheus.Counter
	ItemsMigrated    prometheus.Counter
	StaleSelections  prometheus.Counter
	AcceptDuration   prometheus.Histogram
}

// New creates a Metrics instance with all nexus metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "baranex_nexus_requests_created_total",
			Help: "Total number of transfer requests created",
		}),
		RequestsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "baranex_nexus_requests_accepted_total",
			Help: "Total number of transfer requests accepted",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "baranex_nexus_requests_rejected_total",
			Help: "Total number of transfer requests rejected",
		}),
		ItemsMigrated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "baranex_nexus_items_migrated_total",
			Help: "Total number of records reassigned across barangays",
		}),
		StaleSelections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "baranex_nexus_stale_selections_total",
			Help: "Total number of accepts failed by stale item selections",
		}),
		AcceptDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "baranex_nexus_accept_duration_seconds",
			Help:    "Duration of accept operations including migration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementRequestsCreated records a successful request creation.
func (m *Metrics) IncrementRequestsCreated() {
	m.RequestsCreated.Inc()
}

// IncrementRequestsAccepted records a successful accept.
func (m *Metrics) IncrementRequestsAccepted() {
	m.RequestsAccepted.Inc()
}

// IncrementRequestsRejected records a successful reject.
func (m *Metrics) IncrementRequestsRejected() {
	m.RequestsRejected.Inc()
}

// AddItemsMigrated records how many records one accept moved.
func (m *Metrics) AddItemsMigrated(count int) {
	m.ItemsMigrated.Add(float64(count))
}

// IncrementStaleSelections records an accept failed by staleness.
func (m *Metrics) IncrementStaleSelections() {
	m.StaleSelections.Inc()
}

// ObserveAccept records the duration of an accept operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAccept(start time.Time) {
	m.AcceptDuration.Observe(time.Since(start).Seconds())
}
