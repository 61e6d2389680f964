package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcelsud/webhook-dispatch/webhook"
)

const (
	StatusIdle       = "idle"
	StatusProcessing = "processing"
)

// Queue is the consuming side of the delivery log
type Queue interface {
	Consume(ctx context.Context, destinationID string) ([]webhook.Delivery, error)
	Acknowledge(ctx context.Context, destinationID, deliveryID string) error
}

// Processor runs one queued delivery to completion
type Processor interface {
	Process(ctx context.Context, d webhook.Delivery) error
}

// Heartbeater publishes worker liveness
type Heartbeater interface {
	SetWorkerHeartbeat(ctx context.Context, workerID, destinationID, status string) error
}

type options struct {
	heartbeater       Heartbeater
	heartbeatInterval time.Duration
	minDelay          time.Duration
	maxDelay          time.Duration
	refreshInterval   time.Duration
	logger            zerolog.Logger
}

func defaultOptions() options {
	return options{
		heartbeatInterval: 30 * time.Second,
		minDelay:          100 * time.Millisecond,
		maxDelay:          5 * time.Second,
		refreshInterval:   30 * time.Second,
		logger:            zerolog.Nop(),
	}
}

type Option func(*options)

func WithHeartbeater(h Heartbeater) Option {
	return func(o *options) {
		o.heartbeater = h
	}
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		o.heartbeatInterval = d
	}
}

// WithBackoff bounds the pause between polls of an empty or failing stream
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(o *options) {
		o.minDelay = minDelay
		o.maxDelay = maxDelay
	}
}

// WithRefreshInterval sets how often the pool reconciles workers with the registry
func WithRefreshInterval(d time.Duration) Option {
	return func(o *options) {
		o.refreshInterval = d
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

/* Worker drains the delivery stream of a single destination
 * Deliveries for one destination are processed one at a time, in stream order
 */
type Worker struct {
	ID            string
	DestinationID string
	queue         Queue
	processor     Processor
	opts          options
	lastBeat      time.Time
	quit          chan struct{}
	done          chan struct{}
}

func NewWorker(id, destinationID string, queue Queue, processor Processor, opts ...Option) *Worker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Worker{
		ID:            id,
		DestinationID: destinationID,
		queue:         queue,
		processor:     processor,
		opts:          o,
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		log := w.opts.logger.With().Str("worker_id", w.ID).Str("webhook_id", w.DestinationID).Logger()
		log.Info().Msg("worker started")
		w.heartbeat(ctx, StatusIdle)

		currentDelay := w.opts.minDelay
		for {
			handled, err := w.poll(ctx)
			if err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("polling delivery stream")
			}

			if handled > 0 {
				currentDelay = w.opts.minDelay
			} else {
				currentDelay = min(currentDelay*2, w.opts.maxDelay)
			}

			if time.Since(w.lastBeat) >= w.opts.heartbeatInterval {
				w.heartbeat(ctx, StatusIdle)
			}

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				log.Info().Msg("worker stopped")
				return
			case <-ctx.Done():
				log.Info().Msg("worker stopped")
				return
			}
		}
	}()
}

// poll consumes one batch and returns how many deliveries were handled
func (w *Worker) poll(ctx context.Context) (int, error) {
	deliveries, err := w.queue.Consume(ctx, w.DestinationID)
	if err != nil {
		return 0, err
	}
	if len(deliveries) == 0 {
		return 0, nil
	}

	w.heartbeat(ctx, StatusProcessing)
	defer w.heartbeat(ctx, StatusIdle)

	for _, d := range deliveries {
		if err := w.processor.Process(ctx, d); err != nil {
			w.opts.logger.Error().Err(err).Str("delivery_id", d.ID).Str("webhook_id", w.DestinationID).Msg("processing delivery")
		}
		// Acknowledged either way; a failed Process leaves no state worth replaying
		if err := w.queue.Acknowledge(ctx, w.DestinationID, d.ID); err != nil {
			return len(deliveries), err
		}
	}
	return len(deliveries), nil
}

func (w *Worker) heartbeat(ctx context.Context, status string) {
	if w.opts.heartbeater == nil {
		return
	}
	w.lastBeat = time.Now()
	if err := w.opts.heartbeater.SetWorkerHeartbeat(ctx, w.ID, w.DestinationID, status); err != nil && ctx.Err() == nil {
		w.opts.logger.Warn().Err(err).Str("worker_id", w.ID).Msg("sending heartbeat")
	}
}

// Stop signals the worker to exit after the current poll
func (w *Worker) Stop() { close(w.quit) }

// Wait blocks until the worker goroutine has exited
func (w *Worker) Wait() { <-w.done }
