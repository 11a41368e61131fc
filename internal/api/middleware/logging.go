package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// statusRecorder captures the status code and body size a handler writes so
// the access log can report them.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

// RequestLogging emits one access-log line per request. It prefers the
// request-scoped logger so the correlation id attached by CorrelationID rides
// along on every line.
func RequestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			line := zerolog.Ctx(r.Context())
			if line.GetLevel() == zerolog.Disabled {
				line = &logger
			}
			line.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", rec.status).
				Int("bytes", rec.written).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
