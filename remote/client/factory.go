package remote

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"reqsync/config"
)

// ErrInvalidConfig is returned when the remote configuration cannot produce a client
var ErrInvalidConfig = errors.New("invalid remote configuration")

// NewHTTPClient creates the admin system client from configuration.
// Outbound requests are traced through an otelhttp transport.
func NewHTTPClient(cfg config.RemoteConfig, logger *log.Logger) (*HTTPClient, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base_url %q", ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.PushTimeout <= 0 || cfg.HealthTimeout <= 0 {
		return nil, fmt.Errorf("%w: push_timeout and health_timeout must be positive", ErrInvalidConfig)
	}

	rejects := make(map[int]struct{}, len(cfg.RejectStatuses))
	for _, code := range cfg.RejectStatuses {
		rejects[code] = struct{}{}
	}

	logger.Printf("Remote client created for %s (push_timeout=%v, health_timeout=%v, reject_statuses=%v)",
		cfg.BaseURL, cfg.PushTimeout, cfg.HealthTimeout, cfg.RejectStatuses)

	return &HTTPClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		pushTimeout:    cfg.PushTimeout,
		healthTimeout:  cfg.HealthTimeout,
		rejectStatuses: rejects,
		logger:         logger,
	}, nil
}
