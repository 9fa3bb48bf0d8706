package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests chi could not route, so probes of arbitrary
// paths cannot grow the duration histogram's label set.
const unmatchedRoute = "unmatched"

// Middleware records the count and latency of every request served by the
// lookup API. Latency is labelled by chi route pattern, never by raw path, so
// /v1/pokemon/25 and /v1/pokemon/pikachu share one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		ObserveHTTPRequest(r.Method, routeLabel(r), rec.code(), time.Since(start))
	})
}

// routeLabel reads the pattern chi matched. It is only set once routing has
// run, which is why it is read after next.ServeHTTP.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b) //nolint:wrapcheck // pass-through writer
}

// code is 200 when the handler wrote nothing at all.
func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
