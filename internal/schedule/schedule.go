// internal/schedule/schedule.go
package schedule

import (
	"context"
	"fmt"

	"hicompanion/internal/gateway"
	"hicompanion/internal/logger"
)

// EventsGateway is the slice of the API client the schedule needs.
type EventsGateway interface {
	Events(ctx context.Context) ([]gateway.Event, error)
}

// Service keeps the local schedule cache in sync with the API. When a
// refresh fails the cache keeps serving the last fetched schedule.
type Service struct {
	gw    EventsGateway
	store *Store
}

func NewService(gw EventsGateway, store *Store) *Service {
	return &Service{gw: gw, store: store}
}

// Refresh fetches the schedule and replaces the local cache.
func (s *Service) Refresh(ctx context.Context) ([]gateway.Event, error) {
	events, err := s.gw.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}

	if err := s.store.ReplaceAll(ctx, events); err != nil {
		return nil, fmt.Errorf("caching schedule: %w", err)
	}

	logger.LogInfo("Schedule refreshed: %d events cached", len(events))
	return events, nil
}

// Events returns the cached schedule ordered by start time.
func (s *Service) Events(ctx context.Context) ([]gateway.Event, error) {
	return s.store.List(ctx)
}
