package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/payload"
)

/* Redis Streams implementation of webhook.Repository
 * Streams queue delivery IDs per destination, consumed through consumer groups
 * Hashes hold the delivery record itself
 */

const (
	streamPrefix        = "deliveries"       // Stream naming: deliveries:{destination_id}
	hashPrefix          = "delivery"         // Hash naming: delivery:{delivery_id}
	consumerGroupPrefix = "dispatch-workers" // Consumer group naming: dispatch-workers-{destination_id}
	consumerName        = "dispatcher"
	msgIDTTL            = 24 * time.Hour
	readBlock           = time.Second

	// Pending entries idle this long belong to a worker that never acknowledged them.
	// It must exceed the longest retry budget a destination can configure.
	defaultClaimIdle = time.Hour
)

var _ webhook.Repository = (*Repository)(nil)

type Repository struct {
	client    *redis.Client
	claimIdle time.Duration
}

type Option func(*Repository)

// WithClaimIdle sets how long a delivery stays unacknowledged before Consume hands it out again
func WithClaimIdle(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.claimIdle = d
		}
	}
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int, opts ...Option) (*Repository, error) {
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

	r := &Repository{
		client:    client,
		claimIdle: defaultClaimIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Store records a pending delivery and appends it to its destination stream
func (r *Repository) Store(ctx context.Context, d webhook.Delivery) (string, error) {
	kind, body := d.Payload.Encode()

	err := r.client.HSet(ctx, hashKey(d.ID), map[string]interface{}{
		"id":             d.ID,
		"destination_id": d.DestinationID,
		"kind":           d.Kind.String(),
		"payload_kind":   kind,
		"payload":        body,
		"status":         d.Status.String(),
		"created_at":     d.CreatedAt.Unix(),
		"updated_at":     d.UpdatedAt.Unix(),
	}).Err()
	if err != nil {
		return "", fmt.Errorf("storing delivery metadata: %w", err)
	}

	if err := r.ensureGroup(ctx, d.DestinationID); err != nil {
		return "", err
	}

	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(d.DestinationID),
		Values: map[string]interface{}{
			"delivery_id":    d.ID,
			"destination_id": d.DestinationID,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("adding to stream: %w", err)
	}

	return d.ID, nil
}

// Get retrieves a delivery by ID from its hash
func (r *Repository) Get(ctx context.Context, id string) (webhook.Delivery, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return webhook.Delivery{}, fmt.Errorf("getting delivery: %w", err)
	}
	if len(data) == 0 {
		return webhook.Delivery{}, fmt.Errorf("%w: %s", webhook.ErrDeliveryNotFound, id)
	}

	body, err := payload.Decode(data["payload_kind"], []byte(data["payload"]))
	if err != nil {
		return webhook.Delivery{}, fmt.Errorf("decoding payload of delivery %s: %w", id, err)
	}

	return webhook.Delivery{
		ID:            data["id"],
		DestinationID: data["destination_id"],
		Kind:          webhook.NewKind(data["kind"]),
		Payload:       body,
		Status:        webhook.NewStatus(data["status"]),
		CreatedAt:     time.Unix(parseInt64(data["created_at"]), 0),
		UpdatedAt:     time.Unix(parseInt64(data["updated_at"]), 0),
	}, nil
}

// UpdateStatus updates the status of a delivery
func (r *Repository) UpdateStatus(ctx context.Context, id string, status webhook.Status) error {
	err := r.client.HSet(ctx, hashKey(id), map[string]interface{}{
		"status":     status.String(),
		"updated_at": time.Now().Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

/* Consume hands out the next delivery for a destination
 * Entries left pending by a worker that died before acknowledging are
 * reclaimed first; otherwise a new entry is read from the stream
 */
func (r *Repository) Consume(ctx context.Context, destinationID string) ([]webhook.Delivery, error) {
	if err := r.ensureGroup(ctx, destinationID); err != nil {
		return nil, err
	}

	msgs, err := r.claim(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		msgs, err = r.read(ctx, destinationID)
		if err != nil {
			return nil, err
		}
	}

	deliveries := make([]webhook.Delivery, 0, len(msgs))
	for _, msg := range msgs {
		id, ok := msg.Values["delivery_id"].(string)
		if !ok {
			r.client.XAck(ctx, streamKey(destinationID), groupName(destinationID), msg.ID)
			continue
		}

		d, err := r.Get(ctx, id)
		if errors.Is(err, webhook.ErrDeliveryNotFound) {
			// Record expired before a worker got to it
			r.client.XAck(ctx, streamKey(destinationID), groupName(destinationID), msg.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		if d.Status == webhook.Delivered || d.Status == webhook.Failed {
			// Finished but never acknowledged
			r.client.XAck(ctx, streamKey(destinationID), groupName(destinationID), msg.ID)
			continue
		}

		if err := r.client.Set(ctx, msgIDKey(id), msg.ID, msgIDTTL).Err(); err != nil {
			return nil, fmt.Errorf("storing stream message ID: %w", err)
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, nil
}

// claim takes over one pending entry that has been idle for longer than claimIdle
func (r *Repository) claim(ctx context.Context, destinationID string) ([]redis.XMessage, error) {
	msgs, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   streamKey(destinationID),
		Group:    groupName(destinationID),
		Consumer: consumerName,
		MinIdle:  r.claimIdle,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming pending deliveries: %w", err)
	}
	return msgs, nil
}

func (r *Repository) read(ctx context.Context, destinationID string) ([]redis.XMessage, error) {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    groupName(destinationID),
		Consumer: consumerName,
		Streams:  []string{streamKey(destinationID), ">"},
		Count:    1,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

// Acknowledge marks a delivery as processed in the consumer group
func (r *Repository) Acknowledge(ctx context.Context, destinationID, deliveryID string) error {
	msgID, err := r.client.Get(ctx, msgIDKey(deliveryID)).Result()
	if errors.Is(err, redis.Nil) {
		// Already acknowledged or expired
		return nil
	}
	if err != nil {
		return fmt.Errorf("getting message ID: %w", err)
	}

	if err := r.client.XAck(ctx, streamKey(destinationID), groupName(destinationID), msgID).Err(); err != nil {
		return fmt.Errorf("acknowledging message: %w", err)
	}

	return r.client.Del(ctx, msgIDKey(deliveryID)).Err()
}

// SetTTL sets an expiration time on a delivery hash
func (r *Repository) SetTTL(ctx context.Context, id string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, hashKey(id), ttl).Err(); err != nil {
		return fmt.Errorf("setting TTL on delivery: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// Client returns the underlying connection so other stores can share it
func (r *Repository) Client() *redis.Client {
	return r.client
}

func (r *Repository) ensureGroup(ctx context.Context, destinationID string) error {
	err := r.client.XGroupCreateMkStream(ctx, streamKey(destinationID), groupName(destinationID), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func streamKey(destinationID string) string {
	return fmt.Sprintf("%s:%s", streamPrefix, destinationID)
}

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func msgIDKey(id string) string {
	return fmt.Sprintf("%s:%s:msgid", hashPrefix, id)
}

func groupName(destinationID string) string {
	return fmt.Sprintf("%s-%s", consumerGroupPrefix, destinationID)
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
