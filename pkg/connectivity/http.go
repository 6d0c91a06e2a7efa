package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HTTPProbe polls a URL and treats any response below 500 as online.
// It starts offline so the first successful check produces an edge.
type HTTPProbe struct {
	*state
	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPProbe creates a probe for url.
func NewHTTPProbe(url string, interval, timeout time.Duration, logger *slog.Logger) *HTTPProbe {
	return &HTTPProbe{
		state:    newState(false),
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Run checks immediately and then every interval until ctx is done.
func (p *HTTPProbe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check performs one probe and updates the state.
func (p *HTTPProbe) Check(ctx context.Context) bool {
	online := p.reachable(ctx)
	was := p.IsOnline()
	if p.set(online) {
		p.logger.Info("connectivity restored", "url", p.url)
	} else if was && !online {
		p.logger.Warn("connectivity lost", "url", p.url)
	}
	return online
}

func (p *HTTPProbe) reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
