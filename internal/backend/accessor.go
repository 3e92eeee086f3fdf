// Package backend hands out the shared remote store client once the
// environment is ready.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"study-planner-lite/internal/config"
	"study-planner-lite/internal/supabase"
)

var ErrNotConfigured = errors.New("backend: remote store not configured")

// Factory builds a client. supabase.New satisfies it.
type Factory func(url, anonKey string, opts ...supabase.Option) (*supabase.Client, error)

// Readiness is the part of config.Loader the accessor depends on.
type Readiness interface {
	Wait(ctx context.Context) (config.Settings, error)
}

type Accessor struct {
	ready   Readiness
	factory Factory
	opts    []supabase.Option
	logger  zerolog.Logger

	client atomic.Pointer[supabase.Client]
	once   sync.Once
	err    error
}

// NewAccessor returns an Accessor. A nil factory means supabase.New. opts are
// passed to every construction attempt (there is at most one).
func NewAccessor(ready Readiness, factory Factory, logger zerolog.Logger, opts ...supabase.Option) *Accessor {
	if factory == nil {
		factory = supabase.New
	}
	return &Accessor{
		ready:   ready,
		factory: factory,
		opts:    opts,
		logger:  logger,
	}
}

// Client returns the shared handle, waiting for readiness first if needed.
// A cancelled ctx returns ctx.Err() and leaves the accessor usable.
func (a *Accessor) Client(ctx context.Context) (*supabase.Client, error) {
	if c := a.client.Load(); c != nil {
		return c, nil
	}

	settings, err := a.ready.Wait(ctx)
	if err != nil {
		return nil, err
	}

	a.once.Do(func() { a.construct(settings) })
	if c := a.client.Load(); c != nil {
		return c, nil
	}
	return nil, a.err
}

func (a *Accessor) construct(settings config.Settings) {
	if !settings.SupabaseConfigured() {
		a.logger.Warn().
			Bool("url_set", settings.SupabaseURL() != "").
			Bool("anon_key_set", settings.SupabaseAnonKey() != "").
			Msg("supabase configuration missing or placeholder, running offline")
		a.err = ErrNotConfigured
		return
	}

	opts := append([]supabase.Option(nil), a.opts...)
	if secret := settings.SupabaseJWTSecret(); !config.IsPlaceholder(secret) {
		opts = append(opts, supabase.WithJWTSecret(secret))
	}

	c, err := a.factory(settings.SupabaseURL(), settings.SupabaseAnonKey(), opts...)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to create supabase client")
		a.err = fmt.Errorf("%w: %v", ErrNotConfigured, err)
		return
	}
	a.client.Store(c)
	a.logger.Info().Str("url", c.URL()).Msg("supabase client ready")
}

// Available reports whether a client has been constructed, without waiting.
func (a *Accessor) Available() bool {
	return a.client.Load() != nil
}
