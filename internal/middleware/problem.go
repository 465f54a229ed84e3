package middleware

import (
	"encoding/json"
	"net/http"

	apierrors "carviz/internal/errors"
	"carviz/internal/infrastructure"
)

// writeProblem answers with an RFC 7807 body. Middleware uses it where no
// ErrorHandler is in reach.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, detail string) {
	problem := apierrors.NewProblemDetails(status, problemType, http.StatusText(status), detail, r.URL.Path)
	if traceID := GetRequestID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem); err != nil {
		infrastructure.GetLogger().DebugContext(r.Context(), "failed to write problem response",
			"error", err.Error())
	}
}
