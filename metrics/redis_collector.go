package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook"
)

const (
	deliveryPattern  = "delivery:*"
	heartbeatPattern = "worker:heartbeat:*"
	scanCount        = 1000
)

// Lister enumerates the destinations whose streams are measured
type Lister interface {
	List(ctx context.Context) ([]destination.Destination, error)
}

// RedisCollector implements the Collector interface over the Redis delivery log
type RedisCollector struct {
	client *redis.Client
	lister Lister
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(client *redis.Client, lister Lister) *RedisCollector {
	return &RedisCollector{
		client: client,
		lister: lister,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queueLengths, err := c.GetQueueLengths(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue lengths: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	return Metrics{
		QueueLengths: queueLengths,
		StatusCounts: statusCounts,
		Throughput:   throughput,
		Workers:      workers,
		Timestamp:    time.Now(),
	}, nil
}

/* GetQueueLengths reports, per destination, the entries the consumer group
 * has not read yet plus the ones read but not acknowledged
 */
func (c *RedisCollector) GetQueueLengths(ctx context.Context) (map[string]int64, error) {
	dests, err := c.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}

	queueLengths := make(map[string]int64, len(dests))
	for _, d := range dests {
		groups, err := c.client.XInfoGroups(ctx, "deliveries:"+d.ID).Result()
		if err != nil {
			// Stream not created until the first enqueue
			queueLengths[d.ID] = 0
			continue
		}

		var backlog int64
		for _, g := range groups {
			if g.Name == "dispatch-workers-"+d.ID {
				backlog = g.Lag + g.Pending
			}
		}
		queueLengths[d.ID] = backlog
	}

	return queueLengths, nil
}

// GetStatusCounts returns counts of deliveries grouped by status
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	statusCounts := map[string]int64{
		webhook.Pending.String():    0,
		webhook.Delivering.String(): 0,
		webhook.Delivered.String():  0,
		webhook.Failed.String():     0,
	}

	err := c.eachDelivery(ctx, func(status string, _ int64) {
		if _, exists := statusCounts[status]; exists {
			statusCounts[status]++
		}
	})
	if err != nil {
		return nil, err
	}

	return statusCounts, nil
}

// GetThroughput calculates deliveries completed over different time windows
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := time.Now()
	oneMinuteAgo := now.Add(-1 * time.Minute).Unix()
	fiveMinutesAgo := now.Add(-5 * time.Minute).Unix()
	fifteenMinutesAgo := now.Add(-15 * time.Minute).Unix()

	var tp ThroughputMetrics
	err := c.eachDelivery(ctx, func(status string, updatedAt int64) {
		if status != webhook.Delivered.String() || updatedAt < fifteenMinutesAgo {
			return
		}
		tp.LastFifteenMinutes++
		if updatedAt >= fiveMinutesAgo {
			tp.LastFiveMinutes++
			if updatedAt >= oneMinuteAgo {
				tp.LastMinute++
			}
		}
	})
	if err != nil {
		return ThroughputMetrics{}, err
	}

	return tp, nil
}

// GetActiveWorkers returns information about active workers
func (c *RedisCollector) GetActiveWorkers(ctx context.Context) (map[string][]WorkerInfo, error) {
	workers := make(map[string][]WorkerInfo)

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, heartbeatPattern, scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning worker heartbeat keys: %w", err)
		}

		for _, key := range keys {
			data, err := c.client.Get(ctx, key).Result()
			if err != nil {
				continue
			}

			var info WorkerInfo
			if err := json.Unmarshal([]byte(data), &info); err != nil {
				continue
			}
			workers[info.DestinationID] = append(workers[info.DestinationID], info)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return workers, nil
}

// eachDelivery scans delivery hashes and hands status and updated_at to fn
func (c *RedisCollector) eachDelivery(ctx context.Context, fn func(status string, updatedAt int64)) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, deliveryPattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("scanning delivery keys: %w", err)
		}

		hashes := keys[:0]
		for _, key := range keys {
			if !strings.HasSuffix(key, ":msgid") {
				hashes = append(hashes, key)
			}
		}

		if len(hashes) > 0 {
			pipe := c.client.Pipeline()
			cmds := make([]*redis.SliceCmd, len(hashes))
			for i, key := range hashes {
				cmds[i] = pipe.HMGet(ctx, key, "status", "updated_at")
			}
			if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("executing pipeline: %w", err)
			}

			for _, cmd := range cmds {
				data, err := cmd.Result()
				if err != nil || len(data) < 2 {
					continue
				}
				status, _ := data[0].(string)
				updated, _ := data[1].(string)
				updatedAt, _ := strconv.ParseInt(updated, 10, 64)
				fn(status, updatedAt)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}
