package providers

import (
	"context"
	"net/http"
	"time"

	"aoba/models"

	"golang.org/x/time/rate"
)

// Activity describes one piece of live upstream activity observed by a poll
type Activity struct {
	Provider  models.ProviderName
	ChannelID string
	Event     string
	Title     string
	URL       string
	Author    string
	StartedAt time.Time
}

// Provider polls an upstream platform for activity on the given channels.
// Poll returns the currently observable activity; callers are responsible
// for deciding which of it is new.
type Provider interface {
	Name() models.ProviderName
	Poll(ctx context.Context, channels []string) ([]Activity, error)
}

// Doer abstracts the HTTP client so tests can stub transport
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// rateLimitedDoer spaces requests across all providers sharing it so bursts
// of watched channels do not trip upstream rate limits
type rateLimitedDoer struct {
	client  Doer
	limiter *rate.Limiter
}

// NewRateLimitedDoer wraps client with a shared request rate limit
func NewRateLimitedDoer(client Doer, perSecond float64, burst int) Doer {
	return &rateLimitedDoer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (d *rateLimitedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return d.client.Do(req)
}

// DefaultHTTPClient is the transport providers use when none is injected
func DefaultHTTPClient() Doer {
	return NewRateLimitedDoer(&http.Client{Timeout: 15 * time.Second}, 5, 10)
}
