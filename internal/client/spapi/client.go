package spapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/config"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

const headerRateLimit = "x-amzn-RateLimit-Limit"

// RateLimitInfo carries the upstream quota headers observed on a response,
// success or failure, for caller-side observability.
type RateLimitInfo struct {
	Limit string `json:"limit,omitempty"`
}

// Client talks to the Selling Partner API. All requests flow through one
// circuit breaker; a tripped breaker surfaces as an upstream error without
// touching the network.
type Client struct {
	baseURL       string
	marketplaceID string
	signingSecret string
	tokens        *TokenSource
	rest          *resty.Client
	breaker       *gobreaker.CircuitBreaker[*resty.Response]
}

func NewClient(cfg config.SPAPIConfig) *Client {
	return &Client{
		baseURL:       cfg.Endpoint,
		marketplaceID: cfg.MarketplaceID,
		signingSecret: cfg.SigningSecret,
		tokens:        NewTokenSource(cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken, cfg.TokenEndpoint),
		rest:          resty.New().SetTimeout(30 * time.Second),
		breaker: gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
			Name:        "spapi",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// request executes one SP-API call and maps the response onto the error
// taxonomy: 429 -> RateLimited (with retry hint), 401/403 -> UpstreamAuth,
// other non-2xx -> Upstream, unparseable 2xx body -> InvalidUpstream.
func (c *Client) request(ctx context.Context, method, path string, query map[string]string, out any) (*RateLimitInfo, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("x-amz-access-token", token)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if c.signingSecret != "" {
		// Simplified signed-request header, not a full SigV4 signature.
		req.SetHeader("x-amzn-request-signature", signRequest(c.signingSecret, method, path))
	}

	start := time.Now()
	var resp *resty.Response
	_, execErr := c.breaker.Execute(func() (*resty.Response, error) {
		r, err := req.Execute(method, c.baseURL+path)
		resp = r
		if err != nil {
			return nil, err
		}
		if r.StatusCode() >= http.StatusInternalServerError {
			return r, fmt.Errorf("upstream status %d", r.StatusCode())
		}
		return r, nil
	})
	metrics.UpstreamLatency.WithLabelValues("spapi").Observe(time.Since(start).Seconds())

	if resp == nil {
		return nil, apperrors.New(apperrors.ErrUpstream, "SP-API request failed", execErr)
	}

	info := &RateLimitInfo{Limit: resp.Header().Get(headerRateLimit)}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		metrics.UpstreamThrottles.WithLabelValues("spapi").Inc()
		return info, apperrors.NewRateLimited("SP-API throttled "+path, resp.Header().Get("Retry-After"), nil)
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return info, apperrors.New(apperrors.ErrUpstreamAuth,
			fmt.Sprintf("SP-API rejected credentials (%d): %s", resp.StatusCode(), resp.Body()), nil)
	case !resp.IsSuccess():
		return info, apperrors.New(apperrors.ErrUpstream,
			fmt.Sprintf("SP-API returned %d: %s", resp.StatusCode(), resp.Body()), execErr)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return info, apperrors.New(apperrors.ErrInvalidUpstream, "SP-API response body not parseable", err)
		}
	}
	return info, nil
}

func signRequest(secret, method, path string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s\n%s\n%s", method, path, time.Now().UTC().Format("20060102"))
	return hex.EncodeToString(mac.Sum(nil))
}
