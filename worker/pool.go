package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcelsud/webhook-dispatch/destination"
)

// Lister enumerates registered destinations
type Lister interface {
	List(ctx context.Context) ([]destination.Destination, error)
}

// Pool runs one worker per registered destination
type Pool struct {
	name      string
	lister    Lister
	queue     Queue
	processor Processor
	opts      []Option
	settings  options

	mu      sync.Mutex
	workers map[string]*Worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewPool(lister Lister, queue Queue, processor Processor, opts ...Option) *Pool {
	settings := defaultOptions()
	for _, opt := range opts {
		opt(&settings)
	}
	return &Pool{
		name:      uuid.New().String()[:8],
		lister:    lister,
		queue:     queue,
		processor: processor,
		opts:      opts,
		settings:  settings,
		workers:   make(map[string]*Worker),
	}
}

// Start launches workers for every destination and keeps them in sync with the registry
func (p *Pool) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if err := p.refresh(); err != nil {
		p.cancel()
		return fmt.Errorf("starting worker pool: %w", err)
	}

	p.wg.Add(1)
	go p.janitor()
	return nil
}

// Workers returns the destinations currently served
func (p *Pool) Workers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.workers))
	for id := range p.workers {
		ids = append(ids, id)
	}
	return ids
}

func (p *Pool) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.settings.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.refresh(); err != nil && p.ctx.Err() == nil {
				p.settings.logger.Error().Err(err).Msg("refreshing worker pool")
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// refresh starts workers for new destinations and stops those of removed ones
func (p *Pool) refresh() error {
	dests, err := p.lister.List(p.ctx)
	if err != nil {
		return fmt.Errorf("listing destinations: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool, len(dests))
	for _, d := range dests {
		seen[d.ID] = true
		if _, ok := p.workers[d.ID]; ok {
			continue
		}
		w := NewWorker(fmt.Sprintf("%s-%s", p.name, d.ID), d.ID, p.queue, p.processor, p.opts...)
		w.Start(p.ctx)
		p.workers[d.ID] = w
	}

	for id, w := range p.workers {
		if seen[id] {
			continue
		}
		w.Stop()
		w.Wait()
		delete(p.workers, id)
		p.settings.logger.Info().Str("webhook_id", id).Msg("destination removed, worker stopped")
	}
	return nil
}

// Stop cancels every worker and waits for them to exit
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for id, w := range p.workers {
		w.Stop()
		w.Wait()
		delete(p.workers, id)
	}
}
