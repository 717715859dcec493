// HTTP audit middleware for gateway routes.
package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	domainaudit "github.com/Beor18/real-state-matches-sub000/internal/domain/audit"
)

// AuditRecorder is the minimal contract used by AuditMiddleware.
// domainaudit.Service satisfies this interface.
type AuditRecorder interface {
	Record(ctx context.Context, evt domainaudit.Event) error
}

// AuditMiddleware logs every request into audit_event.
// Expected order in router: RequestID -> AuditMiddleware -> handlers.
func AuditMiddleware(recorder AuditRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			// Recording failures must never fail the request itself.
			_ = recorder.Record(r.Context(), domainaudit.Event{
				RequestID:  chimiddleware.GetReqID(r.Context()),
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: rec.statusCode,
				DurationMS: time.Since(start).Milliseconds(),
				Outcome:    domainaudit.OutcomeFromStatus(rec.statusCode),
			})
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
