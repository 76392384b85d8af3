package recovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	applog "spendwise/internal/log"
)

// Middleware turns handler panics into a 500 JSON response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger := applog.FromContext(r.Context())
			logger.ErrorContext(r.Context(), "Panic recovered",
				applog.FieldError, fmt.Sprint(rec),
				applog.FieldErrorType, applog.ErrorTypeInternal,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}
