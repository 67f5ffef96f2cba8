// Package logs provides the process's structured logger: one zap.Logger
// configured from the configured level, ISO8601 timestamps, and an HTTP
// access-log middleware for the WS listener.
package logs

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger = *zap.Logger
type Field = zap.Field

// New builds a production-shaped logger at the given level ("debug",
// "info", "warn", "error"; unrecognized values fall back to info).
func New(level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := zap.InfoLevel
	if err := lvl.Set(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func F(k string, v any) Field { return zap.Any(k, v) }

// RequestLogger wraps an http.Handler to log method/path/status/duration,
// quieting WebSocket upgrades to debug since they dominate this service's
// traffic and never return a normal status code.
func RequestLogger(l Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrw := &wrap{ResponseWriter: w}
		isWS := isWebSocketUpgrade(r)

		next.ServeHTTP(wrw, r)

		code := wrw.code
		if code == 0 {
			if isWS {
				code = http.StatusSwitchingProtocols
			} else {
				code = http.StatusOK
			}
		}

		fields := []Field{
			F("method", r.Method),
			F("path", r.URL.Path),
			F("code", code),
			F("dur_ms", time.Since(start).Milliseconds()),
		}
		if isWS {
			l.Debug("http", fields...)
		} else {
			l.Info("http", fields...)
		}
	})
}

func isWebSocketUpgrade(r *http.Request) bool {
	if !headerContainsToken(r.Header, "Connection", "upgrade") {
		return false
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func headerContainsToken(h http.Header, key, token string) bool {
	for _, v := range h.Values(key) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

type wrap struct {
	http.ResponseWriter
	code int
}

func (w *wrap) WriteHeader(statusCode int) {
	w.code = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *wrap) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (w *wrap) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *wrap) ReadFrom(r io.Reader) (int64, error) {
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		return rf.ReadFrom(r)
	}
	return io.Copy(w.ResponseWriter, r)
}
