package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/promptician/internal/domain"
	"github.com/davidbz/promptician/internal/observability"
	"github.com/davidbz/promptician/internal/provider/openai"
	"github.com/davidbz/promptician/internal/store/yamlfile"
)

// Config represents the playground configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	OpenAI  openai.Config
	Store   yamlfile.Config
	Session domain.SessionConfig
	Log     observability.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
	// EventBuffer is the per-subscriber queue size of the state stream.
	EventBuffer int `env:"SERVER_EVENT_BUFFER" envDefault:"32"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server  *ServerConfig
	CORS    *CORSConfig
	OpenAI  *openai.Config
	Store   *yamlfile.Config
	Session *domain.SessionConfig
	Log     *observability.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:  &cfg.Server,
		CORS:    &cfg.CORS,
		OpenAI:  &cfg.OpenAI,
		Store:   &cfg.Store,
		Session: &cfg.Session,
		Log:     &cfg.Log,
	}
}
