package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that resolves Bearer tokens to users
// and stores the user id in the request context.
// If tokens is empty, authentication is disabled and requests run as domain.AnonymousUser.
func BearerAuthMiddleware(tokens map[string]string) func(http.Handler) http.Handler {
	valid := make(map[string]string, len(tokens))
	for token, user := range tokens {
		if token != "" && user != "" {
			valid[token] = user
		}
	}

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[strings.TrimSuffix(r.URL.Path, "/")]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			user, ok := lookup(valid, token)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := domain.ContextWithUser(r.Context(), user)
			ctx = logger.WithFields(ctx, zap.String("user", user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the token from the Authorization header. Browsers cannot set
// headers on WebSocket handshakes, so the token query parameter is accepted too.
func bearerToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	if auth := r.Header.Get("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, bearerPrefix) {
			return "", false
		}
		return auth[len(bearerPrefix):], true
	}
	if token := r.URL.Query().Get("token"); token != "" && websocketHandshake(r) {
		return token, true
	}
	return "", false
}

func websocketHandshake(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func lookup(valid map[string]string, token string) (string, bool) {
	for t, user := range valid {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return user, true
		}
	}
	return "", false
}
