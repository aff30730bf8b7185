package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggingTransport returns an http.RoundTripper that logs every outbound request.
// It logs the method, URL, status code, duration and any transport error.
func LoggingTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()

		resp, err := next.RoundTrip(req)

		duration := time.Since(start).Milliseconds()
		if err != nil {
			slog.Error("Gateway request failed",
				"method", req.Method,
				"url", req.URL.Redacted(),
				"error", err,
				"duration_ms", duration,
			)
			return nil, err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			slog.Warn("Gateway request rejected",
				"method", req.Method,
				"url", req.URL.Redacted(),
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		} else {
			slog.Debug("Gateway request ok",
				"method", req.Method,
				"url", req.URL.Redacted(),
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		}

		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
