package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations counts store operations by store and operation.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsocial_store_operations_total",
		Help: "Total number of data layer operations by store and operation",
	}, []string{"store", "operation"})

	// CascadeRowsDeleted counts rows removed by cascade deletes, per collection.
	CascadeRowsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsocial_cascade_rows_deleted_total",
		Help: "Total number of rows removed by cascade deletes",
	}, []string{"collection"})

	// AutoReplies counts simulated chat replies by outcome (scheduled, delivered, cancelled).
	AutoReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsocial_auto_replies_total",
		Help: "Total number of simulated counterparty replies by outcome",
	}, []string{"outcome"})

	// EventDrops counts hub events dropped because a subscriber was not draining.
	EventDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsocial_event_drops_total",
		Help: "Total number of change events dropped due to backpressure",
	}, []string{"reason"})

	// RedisCommandErrors counts failed Redis commands, redis.Nil excluded.
	RedisCommandErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsocial_redis_command_errors_total",
		Help: "Total number of failed Redis commands by command name",
	}, []string{"command"})

	// KVErrors counts preference storage errors by operation type, for every backend.
	KVErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsocial_kv_errors_total",
		Help: "Total number of preference storage errors by operation type",
	}, []string{"operation"})
)

// StoreMetrics records operation counts for one store.
type StoreMetrics struct {
	store string
}

// NewStoreMetrics returns a new StoreMetrics for the named store.
func NewStoreMetrics(store string) *StoreMetrics {
	return &StoreMetrics{store: store}
}

// Record increments the operation counter.
func (m *StoreMetrics) Record(operation string) {
	StoreOperations.WithLabelValues(m.store, operation).Inc()
}

// RecordCascade adds removed row counts per collection.
func (m *StoreMetrics) RecordCascade(rows map[string]int) {
	for collection, n := range rows {
		if n > 0 {
			CascadeRowsDeleted.WithLabelValues(collection).Add(float64(n))
		}
	}
}
