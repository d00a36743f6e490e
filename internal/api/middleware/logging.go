package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/auth"
)

type callerKeyType struct{}

var callerKey callerKeyType

// caller carries the authenticated identity back out to the request
// logger. The logger wraps the whole chain, so it runs before
// RequireAuth has resolved the token; RequireAuth fills this in via
// recordCaller once it has.
type caller struct {
	mu     sync.Mutex
	userID string
	role   string
}

func recordCaller(ctx context.Context, identity *auth.Identity) {
	c, ok := ctx.Value(callerKey).(*caller)
	if !ok {
		return
	}
	c.mu.Lock()
	c.userID = identity.UserID
	c.role = string(identity.Role)
	c.mu.Unlock()
}

// Logger writes one line per completed request. Authenticated requests
// carry the caller's user id and role so board activity is traceable
// per participant; server errors log at error level.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			who := &caller{}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), callerKey, who)))

			evt := logger.Info()
			if ww.Status() >= http.StatusInternalServerError {
				evt = logger.Error()
			}
			evt = evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote_addr", r.RemoteAddr)

			who.mu.Lock()
			if who.userID != "" {
				evt = evt.Str("user_id", who.userID).Str("role", who.role)
			}
			who.mu.Unlock()

			evt.Msg("request completed")
		})
	}
}
