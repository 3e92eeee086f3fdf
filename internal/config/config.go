package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config holds process settings. Backend secrets are not part of it; they go
// through Loader so that readiness can be observed.
type Config struct {
	Env             string        `env:"APP_ENV" env-default:"local" env-description:"local, dev or prod"`
	Port            int           `env:"PORT" env-default:"3000" env-description:"HTTP listen port"`
	GinMode         string        `env:"GIN_MODE" env-default:"release" env-description:"gin mode (debug, release, test)"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info" env-description:"zerolog level"`
	TLSCertFile     string        `env:"TLS_CERT_FILE" env-description:"TLS certificate file"`
	TLSKeyFile      string        `env:"TLS_KEY_FILE" env-description:"TLS key file"`
	StaticDir       string        `env:"STATIC_DIR" env-default:"public" env-description:"front-end asset directory"`
	DevEnvFile      string        `env:"DEV_ENV_FILE" env-default:".env.local" env-description:"development KEY=VALUE file or URL"`
	EnvConfigFile   string        `env:"ENV_CONFIG_FILE" env-default:"env-config.env" env-description:"build-generated env file"`
	EventsFallback  string        `env:"EVENTS_FALLBACK" env-default:"events.json" env-description:"static events fallback, relative to STATIC_DIR"`
	TodosFallback   string        `env:"TODOS_FALLBACK" env-default:"todos.json" env-description:"static todos fallback, relative to STATIC_DIR"`
	SiteURL         string        `env:"SITE_URL" env-default:"http://localhost:3000" env-description:"public origin used in auth email redirects"`
	LoginPath       string        `env:"LOGIN_PATH" env-default:"/login.html" env-description:"route guard redirect target"`
	ProfileDelay    time.Duration `env:"PROFILE_DELAY" env-default:"500ms" env-description:"pause between sign-up and profile creation"`
	RequestTimeout  time.Duration `env:"SUPABASE_TIMEOUT" env-default:"15s" env-description:"remote store request timeout"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s" env-description:"graceful shutdown timeout"`
	AuthRateLimit   int           `env:"AUTH_RATE_LIMIT" env-default:"10" env-description:"auth actions per client IP per minute"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT")
	}
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("invalid APP_ENV %q", c.Env)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("invalid LOGIN_PATH %q", c.LoginPath)
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("invalid AUTH_RATE_LIMIT")
	}
	return nil
}

// Describe renders the environment variables Config understands.
func Describe() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}

// FallbackLocation resolves a fallback resource name against StaticDir.
// URLs and absolute paths are returned unchanged.
func (c Config) FallbackLocation(name string) string {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.StaticDir, name)
}

// Env is the injected configuration source.
type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func OSEnv() Env { return osEnv{} }

type MapEnv map[string]string

func (m MapEnv) Getenv(key string) string { return m[key] }

type layeredEnv []Env

func (l layeredEnv) Getenv(key string) string {
	for _, env := range l {
		if env == nil {
			continue
		}
		if v := env.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Layered returns an Env where earlier sources win over later ones.
func Layered(envs ...Env) Env {
	return layeredEnv(envs)
}
