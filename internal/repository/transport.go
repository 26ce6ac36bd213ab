package repository

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport logs every outbound provider call with the access key redacted.
type LoggingTransport struct {
	Logger *zap.Logger
	Proxy  http.RoundTripper
}

func NewLoggingTransport(logger *zap.Logger) *LoggingTransport {
	return &LoggingTransport{
		Logger: logger,
		Proxy:  http.DefaultTransport,
	}
}

func (l *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.Proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.Logger.Warn("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", redactURL(req.URL.String())),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	l.Logger.Info("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", redactURL(req.URL.String())),
		zap.Int("status_code", resp.StatusCode),
		zap.Int64("content_length", resp.ContentLength),
		zap.Duration("duration", duration),
	)
	return resp, nil
}
