package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP
// =============================================================================

// HttpRequestsTotal - все HTTP запросы
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - latency, бакеты от 1ms до 10s
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Хранилища (MongoDB, PostgreSQL)
// =============================================================================

// DbQueryDuration - время операции; table это коллекция или таблица
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - operation: produce, consume, commit
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Бизнес метрики магазина
// =============================================================================

// --- Заказы и расчёт ---

var OrdersPlaced = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed",
	},
)

// OrdersGrandTotal - сумма grandTotal всех размещённых заказов
var OrdersGrandTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "storefront_orders_grand_total_amount",
		Help: "Sum of grand totals of placed orders",
	},
)

// OrderTransitions - переходы состояния заказа
// Labels: to (paid, delivered), result (success, conflict, not_found)
var OrderTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Order state transitions by target state and result",
	},
	[]string{"to", "result"},
)

// StockDecrements - списания остатков при оплате
// result: success, failed
var StockDecrements = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_stock_decrements_total",
		Help: "Stock decrements issued on payment capture",
	},
	[]string{"result"},
)

var StockDriftApplied = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_stock_drift_applied_total",
		Help: "Stock drift entries processed by the reconciler",
	},
	[]string{"result"},
)

// --- Отзывы и рейтинг ---

var ReviewsUpserted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_reviews_upserted_total",
		Help: "Reviews created or overwritten",
	},
	[]string{"kind"}, // created, updated
)

var ReviewsRating = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "storefront_reviews_rating",
		Help:    "Distribution of review ratings",
		Buckets: []float64{1, 2, 3, 4, 5},
	},
)

// RatingRecomputes - result: success, failed
var RatingRecomputes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_rating_recomputes_total",
		Help: "Product aggregate rating recomputations",
	},
	[]string{"result"},
)

// --- Outbox и уведомления ---

var OutboxEnqueued = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_outbox_enqueued_total",
		Help: "Events written to the outbox",
	},
	[]string{"event_type"},
)

var OutboxPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_outbox_published_total",
		Help: "Outbox events relayed to Kafka",
	},
	[]string{"result"},
)

var NotificationsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_emails_sent_total",
		Help: "Emails handed to the email provider",
	},
	[]string{"event_type", "result"},
)
