package upstream

import (
	"net/http"
	"time"
)

type debugLogger interface {
	Debug(msg string, args ...any)
}

type loggingTransport struct {
	next   http.RoundTripper
	logger debugLogger
}

// LoggingTransport logs every request sent to the APIs at debug level
func LoggingTransport(next http.RoundTripper, l debugLogger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: l}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	args := []any{
		"method", req.Method,
		"url", req.URL.String(),
		"duration", time.Since(start),
	}
	if err != nil {
		t.logger.Debug("sent HTTP request", append(args, "error", err)...)
		return resp, err
	}

	t.logger.Debug("sent HTTP request", append(args, "status", resp.StatusCode, "size", resp.ContentLength)...)
	return resp, nil
}
