package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the outbound lookup budget is exhausted.
// Callers treat it like any other lookup failure and fall back to Unknown.
var ErrRateLimited = errors.New("geo: lookup rate limit exceeded")

// HTTPResolver resolves addresses via an ip-api style JSON endpoint
// (GET {base}/json/{addr}). Lookups are wrapped in a circuit breaker so a
// slow or failing provider degrades to Unknown instead of stalling every
// request, and a token bucket caps outbound query volume.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[Location]
}

// NewHTTPResolver returns a resolver for the given provider base URL.
// timeout bounds each lookup; ratePerSecond caps outbound queries.
func NewHTTPResolver(baseURL string, timeout time.Duration, ratePerSecond int) *HTTPResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 10
	}
	breaker := gobreaker.NewCircuitBreaker[Location](gobreaker.Settings{
		Name:        "geoip-provider",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
		breaker: breaker,
	}
}

// providerResponse is the subset of the provider payload we consume.
type providerResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// Resolve looks up addr. Private and reserved ranges resolve to Local without
// touching the provider. Malformed addresses, provider errors, open breaker,
// and rate limiting all return Unknown with an error for the caller to log.
func (r *HTTPResolver) Resolve(ctx context.Context, addr string) (Location, error) {
	if _, err := netip.ParseAddr(addr); err != nil {
		return Unknown, fmt.Errorf("geo: invalid address %q: %w", addr, err)
	}
	if IsPrivateOrReserved(addr) {
		return Local, nil
	}
	if r.baseURL == "" {
		return Unknown, nil
	}
	if !r.limiter.Allow() {
		return Unknown, ErrRateLimited
	}
	loc, err := r.breaker.Execute(func() (Location, error) {
		return r.lookup(ctx, addr)
	})
	if err != nil {
		return Unknown, err
	}
	return loc, nil
}

func (r *HTTPResolver) lookup(ctx context.Context, addr string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/json/"+addr, nil)
	if err != nil {
		return Unknown, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Unknown, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Unknown, fmt.Errorf("geo: provider returned %d", resp.StatusCode)
	}
	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Unknown, err
	}
	if pr.Status != "" && pr.Status != "success" {
		return Unknown, fmt.Errorf("geo: provider status %q", pr.Status)
	}
	return Location{Country: pr.Country, Region: pr.RegionName, City: pr.City}, nil
}
