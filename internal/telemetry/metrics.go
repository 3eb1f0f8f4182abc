package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — sink для метрик ядра распределения.
//
// Создаётся поверх переданного prometheus.Registerer — никакого
// глобального состояния: несколько экземпляров в одном процессе
// (например, в тестах) не мешают друг другу. Все методы безопасны
// для nil-получателя, компоненты не обязаны проверять наличие sink.
type Metrics struct {
	itemsEnqueued    *prometheus.CounterVec
	itemsDequeued    *prometheus.CounterVec
	routingDecisions *prometheus.CounterVec
	distributions    *prometheus.CounterVec
	retryAttempts    prometheus.Counter
	queuePending     prometheus.Gauge
	workersAvailable prometheus.Gauge
	completionTime   prometheus.Histogram
}

// NewMetrics создаёт и регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		itemsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_items_enqueued_total",
			Help: "Work items enqueued, by item type.",
		}, []string{"type"}),
		itemsDequeued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_items_dequeued_total",
			Help: "Work items claimed from the queue, by item type.",
		}, []string{"type"}),
		routingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_routing_decisions_total",
			Help: "Routing decisions, by winning strategy.",
		}, []string{"strategy"}),
		distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_swarm_distributions_total",
			Help: "Swarm distributions, by heuristic.",
		}, []string{"strategy"}),
		retryAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_retry_attempts_total",
			Help: "Retried operation attempts.",
		}),
		queuePending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_queue_pending",
			Help: "Pending work items in the queue.",
		}),
		workersAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_workers_available",
			Help: "Workers currently in AVAILABLE status.",
		}),
		completionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_completion_seconds",
			Help:    "Reported work item completion durations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	reg.MustRegister(
		m.itemsEnqueued,
		m.itemsDequeued,
		m.routingDecisions,
		m.distributions,
		m.retryAttempts,
		m.queuePending,
		m.workersAvailable,
		m.completionTime,
	)

	return m
}

// ItemEnqueued учитывает постановку item в очередь.
func (m *Metrics) ItemEnqueued(itemType string) {
	if m == nil {
		return
	}
	m.itemsEnqueued.WithLabelValues(itemType).Inc()
}

// ItemDequeued учитывает успешный claim.
func (m *Metrics) ItemDequeued(itemType string) {
	if m == nil {
		return
	}
	m.itemsDequeued.WithLabelValues(itemType).Inc()
}

// RoutingDecision учитывает решение роутера.
func (m *Metrics) RoutingDecision(strategy string) {
	if m == nil {
		return
	}
	m.routingDecisions.WithLabelValues(strategy).Inc()
}

// Distribution учитывает swarm-распределение.
func (m *Metrics) Distribution(strategy string) {
	if m == nil {
		return
	}
	m.distributions.WithLabelValues(strategy).Inc()
}

// RetryAttempt учитывает повторную попытку операции.
func (m *Metrics) RetryAttempt() {
	if m == nil {
		return
	}
	m.retryAttempts.Inc()
}

// SetQueuePending обновляет gauge глубины очереди.
func (m *Metrics) SetQueuePending(n int) {
	if m == nil {
		return
	}
	m.queuePending.Set(float64(n))
}

// SetWorkersAvailable обновляет gauge доступных воркеров.
func (m *Metrics) SetWorkersAvailable(n int) {
	if m == nil {
		return
	}
	m.workersAvailable.Set(float64(n))
}

// ObserveCompletion записывает длительность выполнения item.
func (m *Metrics) ObserveCompletion(d time.Duration) {
	if m == nil {
		return
	}
	m.completionTime.Observe(d.Seconds())
}
