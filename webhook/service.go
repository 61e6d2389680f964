package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook/delivery"
	"github.com/marcelsud/webhook-dispatch/webhook/format"
	"github.com/marcelsud/webhook-dispatch/webhook/payload"
	"github.com/marcelsud/webhook-dispatch/webhook/signature"
	"github.com/marcelsud/webhook-dispatch/webhook/throttle"
)

const (
	defaultDeliveredTTL = time.Hour
	defaultFailedTTL    = 24 * time.Hour
)

// Registry resolves a webhook ID to its destination
type Registry interface {
	Get(ctx context.Context, id string) (destination.Destination, error)
}

// Deliverer sends a payload with retries and reports the outcome
type Deliverer interface {
	Deliver(ctx context.Context, url string, body payload.Payload, cfg delivery.Config) bool
}

// Recorder keeps per-destination bookkeeping after each dispatch
type Recorder interface {
	RecordOutcome(ctx context.Context, id string, delivered bool) error
}

// Metrics counts finished dispatches
type Metrics interface {
	DispatchFinished(ctx context.Context, channel string, delivered bool)
}

// UseCase defines the dispatch operations
type UseCase interface {
	TriggerWebhook(ctx context.Context, webhookID string, body payload.Payload) (bool, error)
	TriggerNotification(ctx context.Context, webhookID string, message payload.Payload) (bool, error)
	Enqueue(ctx context.Context, webhookID string, kind Kind, body payload.Payload) (string, error)
	Process(ctx context.Context, d Delivery) error
	GetDelivery(ctx context.Context, id string) (Delivery, error)
}

/* Service is the dispatch facade
 * Uses pointer semantics as it's an API, not data
 */
type Service struct {
	registry     Registry
	engine       Deliverer
	repo         Repository
	defaults     delivery.Config
	limiter      *throttle.Limiter
	recorder     Recorder
	metrics      Metrics
	logger       zerolog.Logger
	deliveredTTL time.Duration
	failedTTL    time.Duration
	now          func() time.Time
	newID        func() string
}

type Option func(*Service)

// WithRepository enables the async path backed by a delivery log
func WithRepository(repo Repository) Option {
	return func(s *Service) {
		s.repo = repo
	}
}

// WithDefaults replaces the service-wide delivery configuration
func WithDefaults(cfg delivery.Config) Option {
	return func(s *Service) {
		s.defaults = cfg.Clone()
	}
}

func WithLimiter(l *throttle.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithTTL sets how long delivered and failed records are kept; zero keeps the default
func WithTTL(delivered, failed time.Duration) Option {
	return func(s *Service) {
		if delivered > 0 {
			s.deliveredTTL = delivered
		}
		if failed > 0 {
			s.failedTTL = failed
		}
	}
}

// NewService creates a dispatch service with dependency injection
func NewService(registry Registry, engine Deliverer, opts ...Option) *Service {
	s := &Service{
		registry:     registry,
		engine:       engine,
		defaults:     delivery.DefaultConfig(),
		logger:       zerolog.Nop(),
		deliveredTTL: defaultDeliveredTTL,
		failedTTL:    defaultFailedTTL,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TriggerWebhook sends body to the destination as-is
func (s *Service) TriggerWebhook(ctx context.Context, webhookID string, body payload.Payload) (bool, error) {
	return s.trigger(ctx, webhookID, Raw, body, s.newID())
}

// TriggerNotification shapes message for the destination's channel and sends it
func (s *Service) TriggerNotification(ctx context.Context, webhookID string, message payload.Payload) (bool, error) {
	return s.trigger(ctx, webhookID, Notification, message, s.newID())
}

func (s *Service) trigger(ctx context.Context, webhookID string, kind Kind, body payload.Payload, msgID string) (bool, error) {
	dest, err := s.lookup(ctx, webhookID)
	if err != nil {
		return false, err
	}

	if kind == Notification {
		body, err = shape(dest, body)
		if err != nil {
			return false, err
		}
	}

	return s.dispatch(ctx, dest, body, msgID)
}

// lookup resolves webhookID and refuses inactive destinations
func (s *Service) lookup(ctx context.Context, webhookID string) (destination.Destination, error) {
	dest, err := s.registry.Get(ctx, webhookID)
	if errors.Is(err, destination.ErrNotFound) {
		return destination.Destination{}, fmt.Errorf("%w: %s", ErrNotFound, webhookID)
	}
	if err != nil {
		return destination.Destination{}, fmt.Errorf("looking up webhook %s: %w", webhookID, err)
	}
	if !dest.Active {
		return destination.Destination{}, fmt.Errorf("%w: %s", ErrDestinationInactive, webhookID)
	}
	return dest, nil
}

// shape converts a notification message into the body expected by the channel
func shape(dest destination.Destination, message payload.Payload) (payload.Payload, error) {
	switch dest.Channel {
	case destination.Discord:
		text, ok := message.Text()
		if !ok {
			return payload.Payload{}, fmt.Errorf("%w: discord webhook %s requires a text message, got %s", ErrInvalidArgument, dest.ID, message.Kind())
		}
		body, err := payload.NewJSON(format.Discord(text))
		if err != nil {
			return payload.Payload{}, fmt.Errorf("formatting discord message: %w", err)
		}
		return body, nil
	case destination.Slack:
		text, ok := message.Text()
		if !ok {
			return payload.Payload{}, fmt.Errorf("%w: slack webhook %s requires a text message, got %s", ErrInvalidArgument, dest.ID, message.Kind())
		}
		body, err := payload.NewJSON(format.Slack(text))
		if err != nil {
			return payload.Payload{}, fmt.Errorf("formatting slack message: %w", err)
		}
		return body, nil
	default:
		if isEmpty(message) {
			return payload.Payload{}, fmt.Errorf("%w: webhook %s received an empty message", ErrInvalidChannel, dest.ID)
		}
		return format.Generic(message), nil
	}
}

// isEmpty treats an empty text like an unset payload
func isEmpty(message payload.Payload) bool {
	if message.IsZero() {
		return true
	}
	text, ok := message.Text()
	return ok && text == ""
}

func (s *Service) dispatch(ctx context.Context, dest destination.Destination, body payload.Payload, msgID string) (bool, error) {
	cfg, err := s.configFor(dest, body, msgID)
	if err != nil {
		return false, err
	}

	if err := s.limiter.Wait(ctx, dest.ID); err != nil {
		return false, fmt.Errorf("dispatching webhook %s: %w", dest.ID, err)
	}

	log := s.logger.With().
		Str("webhook_id", dest.ID).
		Str("channel", dest.Channel.String()).
		Str("message_id", msgID).
		Logger()
	log.Debug().Str("payload_kind", body.Kind().String()).Int("retries", cfg.Retries).Msg("dispatching webhook")

	started := s.now()
	delivered := s.engine.Deliver(ctx, dest.URL, body, cfg)
	elapsed := s.now().Sub(started)

	// A cancelled or timed out caller says nothing about the destination
	if !delivered && ctx.Err() != nil {
		log.Warn().Err(ctx.Err()).Dur("elapsed", elapsed).Msg("webhook dispatch interrupted")
		return false, fmt.Errorf("dispatching webhook %s: %w", dest.ID, ctx.Err())
	}

	if delivered {
		log.Info().Dur("elapsed", elapsed).Msg("webhook delivered")
	} else {
		log.Warn().Dur("elapsed", elapsed).Int("attempts", max(cfg.Retries, 0)+1).Msg("webhook delivery failed")
	}

	if s.recorder != nil {
		if err := s.recorder.RecordOutcome(ctx, dest.ID, delivered); err != nil {
			log.Error().Err(err).Msg("recording dispatch outcome")
		}
	}
	if s.metrics != nil {
		s.metrics.DispatchFinished(ctx, dest.Channel.String(), delivered)
	}

	return delivered, nil
}

/* configFor layers the delivery configuration:
 * service defaults, then destination headers and overrides, then signature headers
 */
func (s *Service) configFor(dest destination.Destination, body payload.Payload, msgID string) (delivery.Config, error) {
	cfg := s.defaults.Clone()
	for k, v := range dest.Headers {
		cfg.Headers[k] = v
	}
	if dest.MaxRetries != nil {
		cfg.Retries = *dest.MaxRetries
	}
	if dest.RetryDelay != nil {
		cfg.Delay = *dest.RetryDelay
	}
	if len(dest.SuccessStatusCodes) > 0 {
		cfg.SuccessStatusCodes = append([]int(nil), dest.SuccessStatusCodes...)
	}

	secret, ok, err := dest.SigningSecret()
	if err != nil {
		return delivery.Config{}, fmt.Errorf("%w: webhook %s has an unusable secret: %v", ErrInvalidArgument, dest.ID, err)
	}
	if !ok {
		return cfg, nil
	}

	raw, err := body.Bytes()
	if err != nil {
		return delivery.Config{}, fmt.Errorf("encoding payload for webhook %s: %w", dest.ID, err)
	}
	headers, err := signature.Headers(secret, msgID, s.now(), raw)
	if err != nil {
		return delivery.Config{}, fmt.Errorf("signing payload for webhook %s: %w", dest.ID, err)
	}
	for k, v := range headers {
		cfg.Headers[k] = v
	}
	return cfg, nil
}

// Enqueue validates a dispatch up front and queues it for a worker
func (s *Service) Enqueue(ctx context.Context, webhookID string, kind Kind, body payload.Payload) (string, error) {
	if s.repo == nil {
		return "", ErrQueueUnavailable
	}
	if err := kind.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	dest, err := s.lookup(ctx, webhookID)
	if err != nil {
		return "", err
	}
	if kind == Notification {
		if _, err := shape(dest, body); err != nil {
			return "", err
		}
	}

	now := s.now()
	d := Delivery{
		ID:            s.newID(),
		DestinationID: dest.ID,
		Kind:          kind,
		Payload:       body,
		Status:        Pending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	id, err := s.repo.Store(ctx, d)
	if err != nil {
		return "", fmt.Errorf("storing delivery: %w", err)
	}

	s.logger.Debug().Str("delivery_id", id).Str("webhook_id", dest.ID).Str("kind", kind.String()).Msg("delivery queued")
	return id, nil
}

/* Process runs a queued delivery and records its terminal status
 * Dispatch errors (destination removed or deactivated since enqueue) mark the
 * delivery failed; only delivery log errors are returned
 */
func (s *Service) Process(ctx context.Context, d Delivery) error {
	if s.repo == nil {
		return ErrQueueUnavailable
	}

	if err := s.repo.UpdateStatus(ctx, d.ID, Delivering); err != nil {
		return fmt.Errorf("updating delivery status: %w", err)
	}

	delivered, err := s.trigger(ctx, d.DestinationID, d.Kind, d.Payload, d.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("delivery_id", d.ID).Str("webhook_id", d.DestinationID).Msg("queued delivery rejected")
	}

	status, ttl := Failed, s.failedTTL
	if delivered {
		status, ttl = Delivered, s.deliveredTTL
	}

	if err := s.repo.UpdateStatus(ctx, d.ID, status); err != nil {
		return fmt.Errorf("updating delivery status: %w", err)
	}
	if err := s.repo.SetTTL(ctx, d.ID, ttl); err != nil {
		return fmt.Errorf("setting delivery TTL: %w", err)
	}
	return nil
}

// GetDelivery returns a queued or finished delivery
func (s *Service) GetDelivery(ctx context.Context, id string) (Delivery, error) {
	if s.repo == nil {
		return Delivery{}, ErrQueueUnavailable
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Delivery{}, fmt.Errorf("getting delivery %s: %w", id, err)
	}
	return d, nil
}
