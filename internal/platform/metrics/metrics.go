package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, so components can take it as optional.
type Metrics struct {
	IDsIssued            *prometheus.CounterVec
	UsersRegistered      prometheus.Counter
	Logins               *prometheus.CounterVec
	UserCacheLookups     *prometheus.CounterVec
	LedgersCreated       prometheus.Counter
	TransactionsRecorded prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IDsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearledger_ids_issued_total",
			Help: "Identifiers issued by entity type",
		}, []string{"entity"}),
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "clearledger_users_registered_total",
			Help: "Total number of users registered",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearledger_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		UserCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearledger_user_cache_lookups_total",
			Help: "Business user cache lookups by result (hit, miss, error, bypass)",
		}, []string{"result"}),
		LedgersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "clearledger_ledgers_created_total",
			Help: "Total number of ledgers created",
		}),
		TransactionsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "clearledger_transactions_recorded_total",
			Help: "Total number of ledger transactions recorded",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clearledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) IncIDIssued(entity string) {
	if m == nil {
		return
	}
	m.IDsIssued.WithLabelValues(entity).Inc()
}

func (m *Metrics) IncUserRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) IncUserCacheLookup(result string) {
	if m == nil {
		return
	}
	m.UserCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncLedgerCreated() {
	if m == nil {
		return
	}
	m.LedgersCreated.Inc()
}

func (m *Metrics) IncTransactionRecorded() {
	if m == nil {
		return
	}
	m.TransactionsRecorded.Inc()
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
