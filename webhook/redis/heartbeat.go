package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	heartbeatPrefix = "worker:heartbeat" // Key naming: worker:heartbeat:{destination_id}:{worker_id}
	heartbeatTTL    = 60 * time.Second
)

// WorkerHeartbeat represents the heartbeat data for a worker
type WorkerHeartbeat struct {
	WorkerID      string    `json:"worker_id"`
	DestinationID string    `json:"destination_id"`
	Status        string    `json:"status"` // "idle", "processing"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// SetWorkerHeartbeat stores or updates a worker's heartbeat.
// A worker that misses heartbeats for 60 seconds is considered gone.
func (r *Repository) SetWorkerHeartbeat(ctx context.Context, workerID, destinationID, status string) error {
	data, err := json.Marshal(WorkerHeartbeat{
		WorkerID:      workerID,
		DestinationID: destinationID,
		Status:        status,
		LastHeartbeat: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	key := fmt.Sprintf("%s:%s:%s", heartbeatPrefix, destinationID, workerID)
	if err := r.client.Set(ctx, key, data, heartbeatTTL).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}
	return nil
}

// GetActiveWorkers retrieves all live workers for a destination
func (r *Repository) GetActiveWorkers(ctx context.Context, destinationID string) ([]WorkerHeartbeat, error) {
	return r.scanHeartbeats(ctx, fmt.Sprintf("%s:%s:*", heartbeatPrefix, destinationID))
}

// GetAllActiveWorkers retrieves live workers grouped by destination
func (r *Repository) GetAllActiveWorkers(ctx context.Context) (map[string][]WorkerHeartbeat, error) {
	workers, err := r.scanHeartbeats(ctx, heartbeatPrefix+":*")
	if err != nil {
		return nil, err
	}

	byDestination := make(map[string][]WorkerHeartbeat)
	for _, w := range workers {
		byDestination[w.DestinationID] = append(byDestination[w.DestinationID], w)
	}
	return byDestination, nil
}

func (r *Repository) scanHeartbeats(ctx context.Context, pattern string) ([]WorkerHeartbeat, error) {
	var workers []WorkerHeartbeat

	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between scan and get
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting worker heartbeat: %w", err)
		}

		var hb WorkerHeartbeat
		if err := json.Unmarshal([]byte(data), &hb); err != nil {
			continue
		}
		workers = append(workers, hb)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning worker keys: %w", err)
	}

	return workers, nil
}
