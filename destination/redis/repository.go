package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelsud/webhook-dispatch/destination"
)

/* Redis implementation of destination.Repository
 * Each destination lives in a hash destination:{id}; the set "destinations"
 * indexes every known ID
 */

const (
	hashPrefix = "destination"  // Hash naming: destination:{id}
	indexKey   = "destinations" // Set of destination IDs
)

/* recordOutcome updates the bookkeeping fields only while the hash still
 * holds a destination, so a concurrent Delete never leaves a partial hash behind
 * KEYS[1] hash key, ARGV[1] "1" when delivered, ARGV[2] unix timestamp
 */
var recordOutcome = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], "id") == 0 then
	return 0
end
if ARGV[1] == "1" then
	redis.call("HSET", KEYS[1], "failure_count", 0)
else
	redis.call("HINCRBY", KEYS[1], "failure_count", 1)
end
redis.call("HSET", KEYS[1], "last_triggered", ARGV[2])
return 1
`)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewRepositoryFromClient(client), nil
}

// NewRepositoryFromClient shares an existing connection, e.g. with the delivery log
func NewRepositoryFromClient(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Get(ctx context.Context, id string) (destination.Destination, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return destination.Destination{}, fmt.Errorf("getting destination: %w", err)
	}
	// A hash without an id is not a destination
	if data["id"] == "" {
		return destination.Destination{}, fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	return decode(data)
}

// List returns all indexed destinations ordered by ID
func (r *Repository) List(ctx context.Context) ([]destination.Destination, error) {
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing destination ids: %w", err)
	}
	sort.Strings(ids)

	list := make([]destination.Destination, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("getting destination %s: %w", id, err)
		}
		if data["id"] == "" {
			// Index entry without a destination hash; skip
			continue
		}
		d, err := decode(data)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, nil
}

// Save replaces the stored destination
func (r *Repository) Save(ctx context.Context, d destination.Destination) error {
	fields, err := encode(d)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, hashKey(d.ID))
		pipe.HSet(ctx, hashKey(d.ID), fields)
		pipe.SAdd(ctx, indexKey, d.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving destination: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, hashKey(id))
		pipe.SRem(ctx, indexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	return nil
}

func (r *Repository) RecordOutcome(ctx context.Context, id string, delivered bool, at time.Time) error {
	flag := "0"
	if delivered {
		flag = "1"
	}

	updated, err := recordOutcome.Run(ctx, r.client, []string{hashKey(id)}, flag, at.Unix()).Int()
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func encode(d destination.Destination) (map[string]interface{}, error) {
	headers, err := json.Marshal(d.Headers)
	if err != nil {
		return nil, fmt.Errorf("marshaling headers: %w", err)
	}
	codes, err := json.Marshal(d.SuccessStatusCodes)
	if err != nil {
		return nil, fmt.Errorf("marshaling success codes: %w", err)
	}

	fields := map[string]interface{}{
		"id":                   d.ID,
		"url":                  d.URL,
		"channel":              d.Channel.String(),
		"headers":              string(headers),
		"secret":               d.Secret,
		"active":               d.Active,
		"success_status_codes": string(codes),
		"failure_count":        d.FailureCount,
		"created_at":           d.CreatedAt.Unix(),
		"updated_at":           d.UpdatedAt.Unix(),
	}
	if d.MaxRetries != nil {
		fields["max_retries"] = *d.MaxRetries
	}
	if d.RetryDelay != nil {
		fields["retry_delay_ms"] = d.RetryDelay.Milliseconds()
	}
	if d.LastTriggered != nil {
		fields["last_triggered"] = d.LastTriggered.Unix()
	}
	return fields, nil
}

func decode(data map[string]string) (destination.Destination, error) {
	d := destination.Destination{
		ID:           data["id"],
		URL:          data["url"],
		Channel:      destination.NewChannel(data["channel"]),
		Secret:       data["secret"],
		Active:       data["active"] == "1",
		FailureCount: int(parseInt64(data["failure_count"])),
		CreatedAt:    time.Unix(parseInt64(data["created_at"]), 0),
		UpdatedAt:    time.Unix(parseInt64(data["updated_at"]), 0),
	}

	if s := data["headers"]; s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &d.Headers); err != nil {
			return destination.Destination{}, fmt.Errorf("unmarshaling headers: %w", err)
		}
	}
	if s := data["success_status_codes"]; s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &d.SuccessStatusCodes); err != nil {
			return destination.Destination{}, fmt.Errorf("unmarshaling success codes: %w", err)
		}
	}
	if s, ok := data["max_retries"]; ok {
		v := int(parseInt64(s))
		d.MaxRetries = &v
	}
	if s, ok := data["retry_delay_ms"]; ok {
		v := time.Duration(parseInt64(s)) * time.Millisecond
		d.RetryDelay = &v
	}
	if s, ok := data["last_triggered"]; ok {
		v := time.Unix(parseInt64(s), 0)
		d.LastTriggered = &v
	}
	return d, nil
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
