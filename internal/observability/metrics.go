package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat API.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	graphqlOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_graphql_operations_total",
			Help: "Total number of GraphQL operations by result.",
		},
		[]string{"operation", "status"},
	)
	graphqlOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_graphql_operation_duration_seconds",
			Help:    "GraphQL operation latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	subscriptionActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_subscription_active",
			Help: "Number of active subscription streams per topic.",
		},
		[]string{"topic"},
	)
	busEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_bus_events_total",
			Help: "Total number of events published on the in-process bus.",
		},
		[]string{"topic"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket transport events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP mirror publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		graphqlOperationsTotal,
		graphqlOperationDuration,
		subscriptionActive,
		busEventsTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncGraphQLOperation(operation, status string) {
	graphqlOperationsTotal.WithLabelValues(operation, status).Inc()
}

// TimeGraphQLOperation returns a func for the caller to defer; it observes
// the elapsed time under the operation label.
func TimeGraphQLOperation(operation string) func() {
	start := time.Now()
	return func() {
		graphqlOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func IncSubscriptionActive(topic string) {
	subscriptionActive.WithLabelValues(topic).Inc()
}

func DecSubscriptionActive(topic string) {
	subscriptionActive.WithLabelValues(topic).Dec()
}

func IncBusEvent(topic string) {
	busEventsTotal.WithLabelValues(topic).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
