package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/docpipe/docpipe/pkg/requestid"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// quietPaths are polled constantly and only logged at debug level.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logger logs one line per completed request under the given logger name.
// The level follows the status code.
func Logger(name string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			// handlers below may rewrite the path (gateway prefixes)
			path := r.URL.Path
			logger := zap.L().Named(name)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if ce := logger.Check(levelFor(status, path), "request completed"); ce != nil {
				ce.Write(
					zap.String("request_id", requestid.FromRequest(r)),
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.Int("status", status),
					zap.String("ip", clientIP(r)),
					zap.String("user_agent", r.UserAgent()),
					zap.Int("response_bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)),
				)
			}
		})
	}
}

// ConditionalLogger only logs requests when the configured level is debug or trace.
func ConditionalLogger(logLevel, name string) func(next http.Handler) http.Handler {
	switch strings.ToLower(logLevel) {
	case "debug", "trace":
		return Logger(name)
	default:
		return func(next http.Handler) http.Handler { return next }
	}
}

func levelFor(status int, path string) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	case quietPaths[path]:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
