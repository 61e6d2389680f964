package delivery

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook/payload"
)

// statusTransportError is recorded when an attempt never got an HTTP response
const statusTransportError = 0

/* Config controls one delivery
 * Retries counts the attempts made after the first one, so a delivery
 * performs at most Retries+1 POSTs
 */
type Config struct {
	Headers            map[string]string
	Retries            int
	Delay              time.Duration
	SuccessStatusCodes []int
	// Timeout bounds a single attempt; zero leaves it to the HTTP client
	Timeout time.Duration
}

// DefaultConfig returns the documented delivery defaults
func DefaultConfig() Config {
	return Config{
		Headers:            map[string]string{"Content-Type": "application/json"},
		Retries:            1,
		Delay:              time.Second,
		SuccessStatusCodes: []int{http.StatusOK, http.StatusCreated, http.StatusNoContent},
		Timeout:            10 * time.Second,
	}
}

// IsSuccess reports whether code belongs to the success set
func (c Config) IsSuccess(code int) bool {
	return slices.Contains(c.SuccessStatusCodes, code)
}

// Clone returns a copy that shares no maps or slices with c
func (c Config) Clone() Config {
	out := c
	out.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	out.SuccessStatusCodes = slices.Clone(c.SuccessStatusCodes)
	return out
}

// Observer is told about every attempt the engine makes
type Observer interface {
	AttemptFinished(ctx context.Context, attempt int, status int, elapsed time.Duration)
}

type Option func(*Engine)

// WithObserver reports attempts to o
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine POSTs payloads with bounded retries.
// It is safe for concurrent use; it holds no per-delivery state.
type Engine struct {
	client   *http.Client
	observer Observer
	wait     func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewEngine creates an engine on top of client (http.DefaultClient when nil)
func NewEngine(client *http.Client, opts ...Option) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	e := &Engine{
		client: client,
		wait:   sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deliver sends body to url until a success status is returned or the
// retry budget is spent. It never returns an error: transport failures
// count as failed attempts and the outcome is reported as a bool.
func (e *Engine) Deliver(ctx context.Context, url string, body payload.Payload, cfg Config) bool {
	raw, err := body.Bytes()
	if err != nil {
		return false
	}

	retries := max(cfg.Retries, 0)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 && cfg.Delay > 0 {
			if err := e.wait(ctx, cfg.Delay); err != nil {
				return false
			}
		}

		started := e.now()
		status := e.post(ctx, url, raw, cfg)
		if e.observer != nil {
			e.observer.AttemptFinished(ctx, attempt+1, status, e.now().Sub(started))
		}

		if cfg.IsSuccess(status) {
			return true
		}
	}

	return false
}

// post performs one attempt and returns its status code, or 0 when no response arrived
func (e *Engine) post(ctx context.Context, url string, raw []byte, cfg Config) int {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var reader io.Reader
	if raw != nil {
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return statusTransportError
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return statusTransportError
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
