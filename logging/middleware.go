package logging

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

var recorderPool = sync.Pool{
	New: func() any { return &statusRecorder{} },
}

// quietPaths are polled by health checks and scrapers and never logged
var quietPaths = map[string]bool{
	"/health":      true,
	"/metrics":     true,
	"/favicon.ico": true,
}

// RequestLogger logs one line per HTTP request with chi's request id
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quietPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := recorderPool.Get().(*statusRecorder)
		rec.ResponseWriter = w
		rec.status = http.StatusOK
		rec.written = 0
		defer recorderPool.Put(rec)

		next.ServeHTTP(rec, r)

		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = "unknown"
		}

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		}
		if r.URL.RawQuery != "" {
			attrs = append(attrs, "query", r.URL.RawQuery)
		}
		attrs = append(attrs,
			"remote_addr", r.RemoteAddr,
			"status_code", rec.status,
			"bytes_written", rec.written,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		logger := Logger()
		switch {
		case rec.status >= 500:
			logger.WarnContext(r.Context(), "HTTP request", attrs...)
		default:
			logger.InfoContext(r.Context(), "HTTP request", attrs...)
		}

		rec.ResponseWriter = nil
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	n, err := s.ResponseWriter.Write(p)
	s.written += n
	return n, err
}
