package config

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"study-planner-lite/internal/resource"
)

type Source string

const (
	SourceInjected Source = "injected"
	SourceDevFile  Source = "dev-file"
	SourceNone     Source = "none"
)

// Loader populates Settings once and then signals readiness. Readiness is
// signalled whether or not any source produced values.
type Loader struct {
	injected Env
	dev      resource.Resource
	logger   zerolog.Logger

	once     sync.Once
	ready    chan struct{}
	settings Settings
	source   Source
}

// NewLoader builds a Loader. dev may be nil when there is no development
// resource to try.
func NewLoader(injected Env, dev resource.Resource, logger zerolog.Logger) *Loader {
	if injected == nil {
		injected = MapEnv{}
	}
	return &Loader{
		injected: injected,
		dev:      dev,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Load runs the one-time population. Subsequent calls return the first result.
func (l *Loader) Load(ctx context.Context) Settings {
	l.once.Do(func() {
		l.settings, l.source = l.load(ctx)
		close(l.ready)

		l.logger.Info().
			Str("source", string(l.source)).
			Bool("supabase_url_configured", !IsPlaceholder(l.settings.SupabaseURL())).
			Bool("openai_key_configured", l.settings.OpenAIConfigured()).
			Msg("environment loaded")
	})
	<-l.ready
	return l.settings
}

func (l *Loader) load(ctx context.Context) (Settings, Source) {
	values := make(map[string]string, len(InjectedKeys))
	for _, key := range InjectedKeys {
		if v := l.injected.Getenv(key); v != "" {
			values[key] = v
		}
	}

	if !IsPlaceholder(values[KeySupabaseURL]) {
		l.logger.Debug().Msg("using injected environment")
		return NewSettings(values), SourceInjected
	}

	if l.dev == nil {
		return NewSettings(values), SourceNone
	}

	data, err := l.dev.Read(ctx)
	if err != nil {
		event := l.logger.Warn()
		if !errors.Is(err, resource.ErrNotFound) {
			event = event.Err(err)
		}
		event.Str("resource", l.dev.String()).
			Msg("could not load development env, relying on deployment environment")
		return NewSettings(values), SourceNone
	}

	parsed := ParseDotenv(data)
	for k, v := range parsed {
		values[k] = v
	}
	l.logger.Debug().
		Str("resource", l.dev.String()).
		Int("keys", len(parsed)).
		Msg("loaded development env")
	return NewSettings(values), SourceDevFile
}

// Ready is closed once Load has finished.
func (l *Loader) Ready() <-chan struct{} { return l.ready }

func (l *Loader) IsReady() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the loader is ready or ctx is done.
func (l *Loader) Wait(ctx context.Context) (Settings, error) {
	select {
	case <-l.ready:
		return l.settings, nil
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	}
}

// Settings returns the loaded settings without blocking.
func (l *Loader) Settings() (Settings, bool) {
	if !l.IsReady() {
		return Settings{}, false
	}
	return l.settings, true
}

func (l *Loader) Source() Source {
	if !l.IsReady() {
		return ""
	}
	return l.source
}
