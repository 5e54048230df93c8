// File: internal/middleware/constants.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

// Context keys for middleware communication
type contextKey string

const (
	SubjectKey   contextKey = "subject"
	AnonymousKey contextKey = "anonymous"
)

// SubjectFromContext returns the validated session subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(SubjectKey).(string)
	return sub, ok && sub != ""
}

// IsAnonymous reports whether the caller authenticated with the shared
// anon key rather than a session token.
func IsAnonymous(ctx context.Context) bool {
	anon, _ := ctx.Value(AnonymousKey).(bool)
	return anon
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
