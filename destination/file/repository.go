package file

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcelsud/webhook-dispatch/destination"
)

/* Repository serves destinations declared in a YAML file
 * The file is read once; later writes live in memory only and are lost on
 * restart. Use the redis or postgres backend for a mutable registry.
 */

// Document is the structure of destinations.yaml
type Document struct {
	Destinations []Entry `yaml:"destinations"`
}

// Entry is a single destination in the YAML file
type Entry struct {
	ID                 string            `yaml:"id"`
	URL                string            `yaml:"url"`
	Channel            string            `yaml:"channel"`
	Headers            map[string]string `yaml:"headers"`
	Secret             string            `yaml:"secret"`
	Active             *bool             `yaml:"active"` // Default: true
	MaxRetries         *int              `yaml:"max_retries"`
	RetryDelay         string            `yaml:"retry_delay"` // Go duration, e.g. "1500ms"
	SuccessStatusCodes []int             `yaml:"success_status_codes"`
}

type Repository struct {
	mu    sync.RWMutex
	items map[string]destination.Destination
}

// NewRepository loads path into a new in-memory repository
func NewRepository(path string) (*Repository, error) {
	list, err := Load(path)
	if err != nil {
		return nil, err
	}

	r := &Repository{items: make(map[string]destination.Destination, len(list))}
	for _, d := range list {
		r.items[d.ID] = d
	}
	return r, nil
}

// Load reads and validates a destinations file
func Load(path string) ([]destination.Destination, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading destinations file: %w", err)
	}
	return Parse(data)
}

// Parse converts a YAML document into validated destinations
func Parse(data []byte) ([]destination.Destination, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing destinations YAML: %w", err)
	}

	seen := make(map[string]bool, len(doc.Destinations))
	list := make([]destination.Destination, 0, len(doc.Destinations))
	for _, e := range doc.Destinations {
		d, err := e.toDestination()
		if err != nil {
			return nil, err
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("validating destination: %w", err)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("duplicate destination id %q", d.ID)
		}
		seen[d.ID] = true
		list = append(list, d)
	}
	return list, nil
}

func (e Entry) toDestination() (destination.Destination, error) {
	active := true
	if e.Active != nil {
		active = *e.Active
	}

	d := destination.Destination{
		ID:                 e.ID,
		URL:                e.URL,
		Channel:            destination.NewChannel(e.Channel),
		Headers:            e.Headers,
		Secret:             e.Secret,
		Active:             active,
		MaxRetries:         e.MaxRetries,
		SuccessStatusCodes: e.SuccessStatusCodes,
	}

	if e.RetryDelay != "" {
		delay, err := time.ParseDuration(e.RetryDelay)
		if err != nil {
			return destination.Destination{}, fmt.Errorf("parsing retry_delay for destination %q: %w", e.ID, err)
		}
		d.RetryDelay = &delay
	}
	return d, nil
}

func (r *Repository) Get(_ context.Context, id string) (destination.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[id]
	if !ok {
		return destination.Destination{}, fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	return d, nil
}

// List returns all destinations ordered by ID
func (r *Repository) List(_ context.Context) ([]destination.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]destination.Destination, 0, len(r.items))
	for _, d := range r.items {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) Save(_ context.Context, d destination.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[d.ID] = d
	return nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	delete(r.items, id)
	return nil
}

func (r *Repository) RecordOutcome(_ context.Context, id string, delivered bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	if delivered {
		d.FailureCount = 0
	} else {
		d.FailureCount++
	}
	d.LastTriggered = &at
	r.items[id] = d
	return nil
}

func (r *Repository) Close(_ context.Context) error {
	return nil
}
