// Package store reads and writes calendar events and todos in the remote
// store. Reads degrade to static fallback data; writes never do.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"study-planner-lite/internal/model"
	"study-planner-lite/internal/supabase"
)

const (
	eventsTable = "events"
	todosTable  = "todos"
)

var (
	ErrDatabaseUnavailable = errors.New("database connection not available")
	ErrNotAuthenticated    = errors.New("user not authenticated")
)

// Source says where a read result came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceEmpty    Source = "empty"
)

type ClientSource interface {
	Client(ctx context.Context) (*supabase.Client, error)
}

// Identity resolves the user behind the credentials carried by ctx.
type Identity interface {
	UserID(ctx context.Context) (string, bool)
}

type IdentityFunc func(ctx context.Context) (string, bool)

func (f IdentityFunc) UserID(ctx context.Context) (string, bool) { return f(ctx) }

type Options struct {
	Backend  ClientSource
	Identity Identity
	Fallback Fallback
	Logger   zerolog.Logger
}

type Store struct {
	backend  ClientSource
	identity Identity
	fallback Fallback
	logger   zerolog.Logger
}

func New(opts Options) *Store {
	identity := opts.Identity
	if identity == nil {
		identity = IdentityFunc(func(context.Context) (string, bool) { return "", false })
	}
	return &Store{
		backend:  opts.Backend,
		identity: identity,
		fallback: opts.Fallback,
		logger:   opts.Logger.With().Str("component", "store").Logger(),
	}
}

func (s *Store) client(ctx context.Context) (*supabase.Client, error) {
	if s.backend == nil {
		return nil, ErrDatabaseUnavailable
	}
	return s.backend.Client(ctx)
}

// Events returns the caller's events ordered by start time. With no caller
// the list is empty.
func (s *Store) Events(ctx context.Context) ([]model.Event, Source) {
	client, err := s.client(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("remote store unavailable, serving fallback events")
		return s.fallbackEvents(ctx)
	}

	userID, ok := s.identity.UserID(ctx)
	if !ok {
		return []model.Event{}, SourceEmpty
	}

	var records []model.EventRecord
	err = client.From(eventsTable).
		Eq("created_by", userID).
		Order("start_time", supabase.OrderOpts{Ascending: true}).
		Select(ctx, "*", &records)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch events")
		return s.fallbackEvents(ctx)
	}

	events := make([]model.Event, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			s.logger.Warn().Err(err).Msg("skipping event row")
			continue
		}
		events = append(events, r.ToEvent())
	}
	model.SortEvents(events)
	return events, SourceRemote
}

// Todos returns the caller's todos, earliest due date first with undated
// todos last, then highest priority first.
func (s *Store) Todos(ctx context.Context) ([]model.Todo, Source) {
	client, err := s.client(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("remote store unavailable, serving fallback todos")
		return s.fallbackTodos(ctx)
	}

	userID, ok := s.identity.UserID(ctx)
	if !ok {
		return []model.Todo{}, SourceEmpty
	}

	var records []model.TodoRecord
	err = client.From(todosTable).
		Eq("created_by", userID).
		Order("due_date", supabase.OrderOpts{Ascending: true}).
		Order("priority", supabase.OrderOpts{}).
		Select(ctx, "*", &records)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch todos")
		return s.fallbackTodos(ctx)
	}

	todos := make([]model.Todo, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			s.logger.Warn().Err(err).Msg("skipping todo row")
			continue
		}
		todos = append(todos, r.ToTodo())
	}
	model.SortTodos(todos)
	return todos, SourceRemote
}

func (s *Store) writeClient(ctx context.Context) (*supabase.Client, error) {
	client, err := s.client(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn().Err(err).Msg("write rejected, remote store unavailable")
		return nil, ErrDatabaseUnavailable
	}
	return client, nil
}

func (s *Store) owner(ctx context.Context) (*supabase.Client, string, error) {
	client, err := s.writeClient(ctx)
	if err != nil {
		return nil, "", err
	}
	userID, ok := s.identity.UserID(ctx)
	if !ok {
		return nil, "", ErrNotAuthenticated
	}
	return client, userID, nil
}

// SaveEvent updates the event when in carries an id and inserts it otherwise.
func (s *Store) SaveEvent(ctx context.Context, in model.EventInput) (model.Event, error) {
	client, userID, err := s.owner(ctx)
	if err != nil {
		return model.Event{}, err
	}

	row := in.Record(userID)
	var saved model.EventRecord
	q := client.From(eventsTable).Single()
	if in.ID != "" {
		err = q.Eq("id", in.ID.String()).Update(ctx, row, &saved)
	} else {
		err = q.Insert(ctx, row, &saved)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("event_id", in.ID.String()).Msg("failed to save event")
		return model.Event{}, fmt.Errorf("save event: %w", err)
	}

	s.logger.Info().Str("event_id", saved.ID.String()).Bool("update", in.ID != "").Msg("saved event")
	return saved.ToEvent(), nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	client, err := s.writeClient(ctx)
	if err != nil {
		return err
	}
	if err := client.From(eventsTable).Eq("id", id).Delete(ctx); err != nil {
		s.logger.Error().Err(err).Str("event_id", id).Msg("failed to delete event")
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	s.logger.Info().Str("event_id", id).Msg("deleted event")
	return nil
}

// SaveTodo updates the todo when in carries an id and inserts it otherwise.
func (s *Store) SaveTodo(ctx context.Context, in model.TodoInput) (model.Todo, error) {
	client, userID, err := s.owner(ctx)
	if err != nil {
		return model.Todo{}, err
	}

	row := in.Record(userID)
	var saved model.TodoRecord
	q := client.From(todosTable).Single()
	if in.ID != "" {
		err = q.Eq("id", in.ID.String()).Update(ctx, row, &saved)
	} else {
		err = q.Insert(ctx, row, &saved)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("todo_id", in.ID.String()).Msg("failed to save todo")
		return model.Todo{}, fmt.Errorf("save todo: %w", err)
	}

	s.logger.Info().Str("todo_id", saved.ID.String()).Bool("update", in.ID != "").Msg("saved todo")
	return saved.ToTodo(), nil
}

func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	client, err := s.writeClient(ctx)
	if err != nil {
		return err
	}
	if err := client.From(todosTable).Eq("id", id).Delete(ctx); err != nil {
		s.logger.Error().Err(err).Str("todo_id", id).Msg("failed to delete todo")
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	s.logger.Info().Str("todo_id", id).Msg("deleted todo")
	return nil
}

func (s *Store) SetTodoCompleted(ctx context.Context, id string, completed bool) (model.Todo, error) {
	client, err := s.writeClient(ctx)
	if err != nil {
		return model.Todo{}, err
	}

	var saved model.TodoRecord
	err = client.From(todosTable).
		Eq("id", id).
		Single().
		Update(ctx, map[string]any{"completed": completed}, &saved)
	if err != nil {
		s.logger.Error().Err(err).Str("todo_id", id).Msg("failed to update todo completion")
		return model.Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return saved.ToTodo(), nil
}
