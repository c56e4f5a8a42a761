package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"caretrust/pkg/secrets"
)

// AdminTokenHeader carries the admin credential for the /admin surface.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards admin routes. When expectedHash is set the
// presented token is verified with bcrypt; otherwise a constant-time compare
// against expectedToken is used.
func RequireAdminToken(expectedToken, expectedHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AdminTokenHeader)

			ok := false
			switch {
			case expectedHash != "":
				ok = secrets.Verify(token, expectedHash) == nil
			case expectedToken != "":
				ok = subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
			}

			if !ok {
				if logger != nil {
					logger.WarnContext(r.Context(), "admin token mismatch",
						"request_id", GetRequestID(r.Context()),
					)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
