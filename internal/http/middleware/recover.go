package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/davidbz/promptician/internal/observability"
)

// Recover turns a handler panic into a 500 response and an error log.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					observability.FromContext(r.Context()).Error("handler panicked",
						zap.Any("panic", v),
						zap.Stack("stack"))
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
