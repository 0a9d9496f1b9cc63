package middleware

import (
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// ClientInfo copies the peer address and User-Agent into the request context
// so engine events carry them. Forwarding headers are not trusted.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ctx = goSession.WithClientIP(ctx, host)
		} else if r.RemoteAddr != "" {
			ctx = goSession.WithClientIP(ctx, r.RemoteAddr)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = goSession.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
