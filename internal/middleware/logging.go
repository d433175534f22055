package middleware

import (
	"net/http"
	"time"

	"image-audit/internal/logging"
)

// responseWriter captures the status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger logs each request at debug level. Server errors are logged
// as warnings regardless of level.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		if wrapped.statusCode >= http.StatusInternalServerError {
			logging.Warn("%s %s %s -> %d (%d bytes, %v)", r.RemoteAddr, r.Method, r.URL.Path,
				wrapped.statusCode, wrapped.bytesWritten, duration)
			return
		}
		logging.Debug("%s %s %s -> %d (%d bytes, %v)", r.RemoteAddr, r.Method, r.URL.Path,
			wrapped.statusCode, wrapped.bytesWritten, duration)
	})
}
