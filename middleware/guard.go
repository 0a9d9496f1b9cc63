package middleware

import (
	"context"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

type accessPayloadContextKey struct{}

// AccessPayloadFromContext returns the payload attached by Guard.
func AccessPayloadFromContext(ctx context.Context) (*goSession.AccessPayload, bool) {
	p, ok := ctx.Value(accessPayloadContextKey{}).(*goSession.AccessPayload)
	return p, ok
}

// Guard rejects requests without a valid bearer access credential. Validation
// is stateless, so a revoked session keeps passing until its access credential expires.
func Guard(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, ok := engine.ValidateAccessToken(r.Context(), token)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accessPayloadContextKey{}, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
