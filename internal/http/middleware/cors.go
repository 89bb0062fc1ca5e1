package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/promptician/internal/config"
)

// exposedHeaders are readable by browser clients of the playground API.
var exposedHeaders = []string{"X-Trace-Id", "X-Request-Id"}

// CORS creates a middleware that handles Cross-Origin Resource Sharing so a
// browser front end on another origin can drive the playground.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	// Credentials cannot be combined with a wildcard origin.
	allowCredentials := cfg.AllowCredentials
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
