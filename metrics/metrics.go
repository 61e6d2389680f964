package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the dispatch system.
type Metrics struct {
	// QueueLengths maps webhook_id to the number of deliveries not yet acknowledged
	QueueLengths map[string]int64 `json:"queue_lengths"`

	// StatusCounts maps status name to count of deliveries in that status
	StatusCounts map[string]int64 `json:"status_counts"`

	// Throughput represents deliveries completed per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Workers maps webhook_id to list of active workers
	Workers map[string][]WorkerInfo `json:"workers"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents deliveries completed over different time windows.
type ThroughputMetrics struct {
	LastMinute         int64 `json:"last_minute"`
	LastFiveMinutes    int64 `json:"last_five_minutes"`
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// WorkerInfo represents information about an active worker.
type WorkerInfo struct {
	WorkerID      string    `json:"worker_id"`
	DestinationID string    `json:"destination_id"`
	Status        string    `json:"status"` // "idle", "processing"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the delivery log.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueLengths returns the backlog per destination
	GetQueueLengths(ctx context.Context) (map[string]int64, error)

	// GetStatusCounts returns the count of deliveries by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns deliveries completed over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetActiveWorkers returns information about active workers per destination
	GetActiveWorkers(ctx context.Context) (map[string][]WorkerInfo, error)
}
