package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	incidentsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incidents_registered_total",
			Help: "Total number of incidents registered",
		},
		[]string{"severity"},
	)

	patientsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "patients_created_total",
			Help: "Total number of patient records created",
		},
	)

	riskEscalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_risk_escalations_total",
			Help: "Total number of patient risk level changes",
		},
		[]string{"from_level", "to_level"},
	)

	subscriptionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"plan"},
	)

	paymentsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Total number of payment confirmations applied",
		},
		[]string{"plan"},
	)

	entitlementDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_denials_total",
			Help: "Total number of registration attempts denied by the entitlement gate",
		},
		[]string{"reason"},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordIncidentRegistered records a registered incident
func RecordIncidentRegistered(severity string) {
	incidentsRegistered.WithLabelValues(severity).Inc()
}

// RecordPatientCreated records a patient record creation
func RecordPatientCreated() {
	patientsCreated.Inc()
}

// RecordRiskEscalation records a patient risk level change
func RecordRiskEscalation(fromLevel, toLevel string) {
	riskEscalations.WithLabelValues(fromLevel, toLevel).Inc()
}

// RecordSubscriptionCreated records a subscription creation
func RecordSubscriptionCreated(plan string) {
	subscriptionsCreated.WithLabelValues(plan).Inc()
}

// RecordPaymentConfirmed records an applied payment confirmation
func RecordPaymentConfirmed(plan string) {
	paymentsConfirmed.WithLabelValues(plan).Inc()
}

// RecordEntitlementDenied records a denied registration attempt
func RecordEntitlementDenied(reason string) {
	entitlementDenials.WithLabelValues(reason).Inc()
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}
