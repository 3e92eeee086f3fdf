package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-planner-lite/internal/config"
	"study-planner-lite/internal/supabase"
)

func countingFactory(calls *int32) Factory {
	return func(url, key string, opts ...supabase.Option) (*supabase.Client, error) {
		atomic.AddInt32(calls, 1)
		return supabase.New(url, key, opts...)
	}
}

func TestClient_ConcurrentCallersBeforeReadiness(t *testing.T) {
	loader := config.NewLoader(config.MapEnv{
		config.KeySupabaseURL:     "https://x.supabase.co",
		config.KeySupabaseAnonKey: "anon",
	}, nil, zerolog.Nop())

	var calls int32
	a := NewAccessor(loader, countingFactory(&calls), zerolog.Nop())

	const n = 16
	var wg sync.WaitGroup
	clients := make([]*supabase.Client, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], errs[i] = a.Client(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls), "no construction before readiness")
	loader.Load(context.Background())
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, clients[0], clients[i])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.True(t, a.Available())
}

func TestClient_PlaceholderConfigIsNotConfigured(t *testing.T) {
	loader := config.NewLoader(config.MapEnv{
		config.KeySupabaseURL:     "your_supabase_project_url",
		config.KeySupabaseAnonKey: "your_supabase_anon_key",
	}, nil, zerolog.Nop())
	loader.Load(context.Background())

	var calls int32
	a := NewAccessor(loader, countingFactory(&calls), zerolog.Nop())

	for i := 0; i < 3; i++ {
		c, err := a.Client(context.Background())
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.False(t, a.Available())
}

func TestClient_FactoryFailureWrapsCause(t *testing.T) {
	loader := config.NewLoader(config.MapEnv{
		config.KeySupabaseURL:     "https://x.supabase.co",
		config.KeySupabaseAnonKey: "anon",
	}, nil, zerolog.Nop())
	loader.Load(context.Background())

	boom := errors.New("boom")
	var calls int32
	a := NewAccessor(loader, func(string, string, ...supabase.Option) (*supabase.Client, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}, zerolog.Nop())

	_, err := a.Client(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "boom")

	_, err = a.Client(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_CancelledWaitDoesNotPoison(t *testing.T) {
	loader := config.NewLoader(config.MapEnv{
		config.KeySupabaseURL:     "https://x.supabase.co",
		config.KeySupabaseAnonKey: "anon",
	}, nil, zerolog.Nop())
	a := NewAccessor(loader, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.Client(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	loader.Load(context.Background())
	c, err := a.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co", c.URL())
}

func TestClient_PassesJWTSecret(t *testing.T) {
	loader := config.NewLoader(config.MapEnv{
		config.KeySupabaseURL:       "https://x.supabase.co",
		config.KeySupabaseAnonKey:   "anon",
		config.KeySupabaseJWTSecret: "s3cret",
	}, nil, zerolog.Nop())
	loader.Load(context.Background())

	c, err := NewAccessor(loader, nil, zerolog.Nop()).Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.JWTSecret())
}
