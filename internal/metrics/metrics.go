package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketlive"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business
	QuotesCreated        *prometheus.CounterVec
	BookingsCreated      prometheus.Counter
	BookingTransitions   *prometheus.CounterVec
	BookingsExpiredOffer prometheus.Counter
	ShipmentUpserts      *prometheus.CounterVec
	OutOfBandTransitions prometheus.Counter
	SideEffectFailures   *prometheus.CounterVec

	// Outbox
	OutboxEnqueued  *prometheus.CounterVec
	OutboxDelivered *prometheus.CounterVec
	OutboxPending   prometheus.Gauge
	OutboxDuration  *prometheus.HistogramVec

	// Ingestion
	FeedMessages *prometheus.CounterVec

	// Circuit breakers
	CircuitBreakerState *prometheus.GaugeVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		QuotesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_created_total",
			Help:      "Quotes stored, by service type.",
		}, []string{"service_type"}),
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		}),
		BookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions.",
		}, []string{"from", "to"}),
		BookingsExpiredOffer: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_expired_offer_total",
			Help:      "Bookings accepted against an offer past its validUntil.",
		}),
		ShipmentUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_upserts_total",
			Help:      "Shipment upserts by outcome.",
		}, []string{"outcome"}),
		OutOfBandTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_out_of_band_transitions_total",
			Help:      "Shipment status changes outside the expected progression.",
		}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed without aborting the mutation.",
		}, []string{"effect"}),
		OutboxEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_enqueued_total",
			Help:      "Outbox tasks enqueued, by kind and result.",
		}, []string{"kind", "result"}),
		OutboxDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_deliveries_total",
			Help:      "Outbox delivery attempts, by kind and result.",
		}, []string{"kind", "result"}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_batch_size",
			Help:      "Tasks claimed in the last poll.",
		}),
		OutboxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_delivery_duration_seconds",
			Help:      "Time spent delivering one outbox task.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_feed_messages_total",
			Help:      "Carrier tracking feed messages, by result.",
		}, []string{"result"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.QuotesCreated,
		m.BookingsCreated,
		m.BookingTransitions,
		m.BookingsExpiredOffer,
		m.ShipmentUpserts,
		m.OutOfBandTransitions,
		m.SideEffectFailures,
		m.OutboxEnqueued,
		m.OutboxDelivered,
		m.OutboxPending,
		m.OutboxDuration,
		m.FeedMessages,
		m.CircuitBreakerState,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordQuote(serviceType string) {
	if m == nil {
		return
	}
	m.QuotesCreated.WithLabelValues(serviceType).Inc()
}

func (m *Metrics) RecordBookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) RecordBookingTransition(from, to string) {
	if m == nil {
		return
	}
	m.BookingTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordExpiredOffer() {
	if m == nil {
		return
	}
	m.BookingsExpiredOffer.Inc()
}

func (m *Metrics) RecordShipmentUpsert(outcome string) {
	if m == nil {
		return
	}
	m.ShipmentUpserts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordOutOfBandTransition() {
	if m == nil {
		return
	}
	m.OutOfBandTransitions.Inc()
}

func (m *Metrics) RecordSideEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) RecordOutboxEnqueue(kind, result string) {
	if m == nil {
		return
	}
	m.OutboxEnqueued.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordOutboxDelivery(kind, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OutboxDelivered.WithLabelValues(kind, result).Inc()
	m.OutboxDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) SetOutboxBatch(n int) {
	if m == nil {
		return
	}
	m.OutboxPending.Set(float64(n))
}

func (m *Metrics) RecordFeedMessage(result string) {
	if m == nil {
		return
	}
	m.FeedMessages.WithLabelValues(result).Inc()
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
