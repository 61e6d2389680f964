package destination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UseCase defines the business operations for destination management
type UseCase interface {
	Get(ctx context.Context, id string) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
	Register(ctx context.Context, d Destination) (Destination, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	RecordOutcome(ctx context.Context, id string, delivered bool) error
}

type Service struct {
	Repo Repository
	now  func() time.Time
}

// NewService creates a destination service on top of repo
func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
		now:  time.Now,
	}
}

// Get returns the destination with id or an error wrapping ErrNotFound
func (s *Service) Get(ctx context.Context, id string) (Destination, error) {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Destination{}, fmt.Errorf("getting destination %s: %w", id, err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]Destination, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	return list, nil
}

/* Register stores a new destination
 * An empty ID is replaced by a UUID. New destinations start active with a
 * clean failure history.
 */
func (s *Service) Register(ctx context.Context, d Destination) (Destination, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Channel == 0 {
		d.Channel = Generic
	}
	now := s.now()
	d.Active = true
	d.FailureCount = 0
	d.LastTriggered = nil
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := d.Validate(); err != nil {
		return Destination{}, fmt.Errorf("validating destination: %w", err)
	}

	_, err := s.Repo.Get(ctx, d.ID)
	switch {
	case err == nil:
		return Destination{}, fmt.Errorf("registering destination %s: %w", d.ID, ErrAlreadyExists)
	case !errors.Is(err, ErrNotFound):
		return Destination{}, fmt.Errorf("checking destination %s: %w", d.ID, err)
	}

	if err := s.Repo.Save(ctx, d); err != nil {
		return Destination{}, fmt.Errorf("saving destination: %w", err)
	}
	return d, nil
}

// SetActive enables or disables delivery to a destination
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	d, err := s.Repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("getting destination %s: %w", id, err)
	}
	if d.Active == active {
		return nil
	}

	d.Active = active
	d.UpdatedAt = s.now()
	if err := s.Repo.Save(ctx, d); err != nil {
		return fmt.Errorf("saving destination: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting destination %s: %w", id, err)
	}
	return nil
}

// RecordOutcome updates the failure bookkeeping after a dispatch
func (s *Service) RecordOutcome(ctx context.Context, id string, delivered bool) error {
	if err := s.Repo.RecordOutcome(ctx, id, delivered, s.now()); err != nil {
		return fmt.Errorf("recording outcome for %s: %w", id, err)
	}
	return nil
}
