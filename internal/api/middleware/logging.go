package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestObserver receives one sample per served request.
// *metrics.Collector satisfies this interface.
type RequestObserver interface {
	HTTPRequest(route, method string, status int, elapsed time.Duration)
}

// RequestLogger logs every request once it completes and reports it to obs.
// Expected order in router: RequestID -> RequestLogger -> Recoverer -> routes.
func RequestLogger(logger logrus.FieldLogger, obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start)

			route := routePattern(r)
			if obs != nil {
				obs.HTTPRequest(route, r.Method, recorder.statusCode, elapsed)
			}

			entry := logger.WithFields(logrus.Fields{
				"request_id":  chimw.GetReqID(r.Context()),
				"method":      r.Method,
				"route":       route,
				"status_code": recorder.statusCode,
				"duration_ms": elapsed.Milliseconds(),
				"outcome":     outcomeFromStatus(recorder.statusCode),
			})
			if recorder.statusCode >= http.StatusInternalServerError {
				entry.Warn("http request failed")
				return
			}
			entry.Info("http request")
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

// routePattern prefers the matched chi pattern so ids never become labels.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func outcomeFromStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "denied"
	case statusCode < 500:
		return "rejected"
	default:
		return "error"
	}
}
