package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"study-planner-lite/internal/model"
	"study-planner-lite/internal/resource"
)

// Fallback holds the static data served while the remote store is
// unreachable. The files are already in the UI shape.
type Fallback struct {
	Events resource.Resource
	Todos  resource.Resource
}

func loadFallback[T any](ctx context.Context, res resource.Resource) ([]T, error) {
	if res == nil {
		return nil, resource.ErrNotFound
	}
	data, err := res.Read(ctx)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", res, err)
	}
	return items, nil
}

func (s *Store) fallbackEvents(ctx context.Context) ([]model.Event, Source) {
	events, err := loadFallback[model.Event](ctx, s.fallback.Events)
	if err != nil {
		s.logFallbackError(err, "events")
		return []model.Event{}, SourceEmpty
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, SourceFallback
}

func (s *Store) fallbackTodos(ctx context.Context) ([]model.Todo, Source) {
	todos, err := loadFallback[model.Todo](ctx, s.fallback.Todos)
	if err != nil {
		s.logFallbackError(err, "todos")
		return []model.Todo{}, SourceEmpty
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, SourceFallback
}

func (s *Store) logFallbackError(err error, kind string) {
	event := s.logger.Error()
	if errors.Is(err, resource.ErrNotFound) {
		event = s.logger.Warn()
	}
	event.Err(err).Str("kind", kind).Msg("fallback data unavailable, serving empty list")
}
