// File: internal/middleware/credentials.go
package middleware

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/iakadir/go-iakadir/internal/auth"
)

// CredentialConfig controls what the proxy accepts as caller credentials.
type CredentialConfig struct {
	// AnonKey, when set, is the only accepted apikey value and the shared
	// bearer used by callers without a session.
	AnonKey string
	// JWTSecret, when set, validates any bearer that is not the anon key.
	JWTSecret []byte
}

// NewCredentialMiddleware requires an apikey header and an optional bearer token.
// A validated session subject is stored under SubjectKey.
func NewCredentialMiddleware(cfg CredentialConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := strings.TrimSpace(r.Header.Get("apikey"))
			if apiKey == "" {
				log.Printf("[Credentials] Missing apikey header from %s", r.RemoteAddr)
				writeJSONError(w, http.StatusUnauthorized, "missing apikey header")
				return
			}
			if cfg.AnonKey != "" && !equalSecret(apiKey, cfg.AnonKey) {
				log.Printf("[Credentials] Rejected apikey from %s", r.RemoteAddr)
				writeJSONError(w, http.StatusUnauthorized, "invalid apikey")
				return
			}

			ctx := r.Context()
			bearer, hasBearer := bearerToken(r)
			switch {
			case !hasBearer, bearer == apiKey, cfg.AnonKey != "" && equalSecret(bearer, cfg.AnonKey):
				ctx = context.WithValue(ctx, AnonymousKey, true)
			case len(cfg.JWTSecret) > 0:
				subject, err := auth.ValidateSessionToken(bearer, cfg.JWTSecret)
				if err != nil {
					log.Printf("[Credentials] Invalid session token from %s: %v", r.RemoteAddr, err)
					writeJSONError(w, http.StatusUnauthorized, "invalid session token")
					return
				}
				ctx = context.WithValue(ctx, SubjectKey, subject)
			default:
				// No secret to check against: any bearer value counts as a credential.
				ctx = context.WithValue(ctx, AnonymousKey, false)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func equalSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
