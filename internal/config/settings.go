package config

import "strings"

const (
	KeySupabaseURL       = "SUPABASE_URL"
	KeySupabaseAnonKey   = "SUPABASE_ANON_KEY"
	KeyOpenAIAPIKey      = "OPENAI_API_KEY"
	KeySupabaseJWTSecret = "SUPABASE_JWT_SECRET"
)

// InjectedKeys are the secrets a build step may inject.
var InjectedKeys = []string{
	KeySupabaseURL,
	KeySupabaseAnonKey,
	KeyOpenAIAPIKey,
	KeySupabaseJWTSecret,
}

var templatePlaceholders = map[string]struct{}{
	"your_supabase_project_url": {},
	"your_supabase_anon_key":    {},
	"your_openai_api_key":       {},
}

// IsPlaceholder reports values that were never filled in: empty strings,
// build substitution markers like __SUPABASE_URL__ and the .env template
// defaults.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	if len(v) > 4 && strings.HasPrefix(v, "__") && strings.HasSuffix(v, "__") {
		return true
	}
	_, ok := templatePlaceholders[strings.ToLower(v)]
	return ok
}

// Settings is an immutable set of named secrets.
type Settings struct {
	values map[string]string
}

func NewSettings(values map[string]string) Settings {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Settings{values: cp}
}

func (s Settings) Get(key string) string { return s.values[key] }

func (s Settings) Values() map[string]string {
	cp := make(map[string]string, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

func (s Settings) Len() int { return len(s.values) }

func (s Settings) SupabaseURL() string       { return s.values[KeySupabaseURL] }
func (s Settings) SupabaseAnonKey() string   { return s.values[KeySupabaseAnonKey] }
func (s Settings) OpenAIAPIKey() string      { return s.values[KeyOpenAIAPIKey] }
func (s Settings) SupabaseJWTSecret() string { return s.values[KeySupabaseJWTSecret] }

func (s Settings) SupabaseConfigured() bool {
	return !IsPlaceholder(s.SupabaseURL()) && !IsPlaceholder(s.SupabaseAnonKey())
}

func (s Settings) OpenAIConfigured() bool {
	return !IsPlaceholder(s.OpenAIAPIKey())
}
