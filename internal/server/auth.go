package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/knowhub/knowhub-go/internal/logging"
)

// identityKey is the context key under which the authenticated subject is stored.
type identityKey struct{}

// devIdentity is the stand-in subject granted to any bearer of a non-empty
// token. Real identity resolution is a deployment concern handled upstream
// (reverse proxy or gateway); the API only requires token presence.
const devIdentity = "dev"

// authMiddleware enforces bearer token presence. Any non-empty token is
// accepted and mapped to the stand-in identity; requests without a token
// receive 401 Unauthorized with a WWW-Authenticate challenge. Token values
// are never logged.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			logging.FromContext(r.Context()).Warn("auth: missing bearer token",
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="knowhub"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, devIdentity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFromContext returns the authenticated subject, or the stand-in
// identity when the middleware did not run (tests calling handlers directly).
func identityFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey{}).(string); ok {
		return id
	}
	return devIdentity
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return ""
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
