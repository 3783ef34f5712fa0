package adsapi

import (
	"context"
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

// Client talks to the Amazon Advertising API for one advertiser profile.
type Client struct {
	baseURL   string
	clientID  string
	profileID string
	tokens    *tokenSource
	rest      *resty.Client
	breaker   *gobreaker.CircuitBreaker[*resty.Response]

	pollInitial time.Duration
	pollMax     int
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg config.AdsConfig) *Client {
	pollInitial := time.Duration(cfg.ReportPollInitialMs) * time.Millisecond
	if pollInitial <= 0 {
		pollInitial = 2 * time.Second
	}
	pollMax := cfg.ReportPollMaxRetries
	if pollMax <= 0 {
		pollMax = 6
	}
	return &Client{
		baseURL:   cfg.Endpoint,
		clientID:  cfg.ClientID,
		profileID: cfg.ProfileID,
		tokens:    newTokenSource(cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken, cfg.TokenEndpoint),
		rest:      resty.New().SetTimeout(30 * time.Second),
		breaker: gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
			Name:        "adsapi",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		pollInitial: pollInitial,
		pollMax:     pollMax,
		sleep:       sleepContext,
	}
}

func (c *Client) request(ctx context.Context, method, path, profileID string, body, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Amazon-Advertising-API-ClientId", c.clientID).
		SetHeader("Amazon-Advertising-API-Scope", profileID)
	if body != nil {
		req.SetBody(body)
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
	metrics.UpstreamLatency.WithLabelValues("adsapi").Observe(time.Since(start).Seconds())

	if resp == nil {
		return apperrors.New(apperrors.ErrUpstream, "Ads API request failed", execErr)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		metrics.UpstreamThrottles.WithLabelValues("adsapi").Inc()
		return apperrors.NewRateLimited("Ads API throttled "+path, resp.Header().Get("Retry-After"), nil)
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		// Surfaced as 401 so the scheduler can tell "fix credentials" apart
		// from "retry later".
		return apperrors.New(apperrors.ErrUpstreamAuth,
			fmt.Sprintf("Ads API rejected credentials (%d): %s", resp.StatusCode(), resp.Body()), nil)
	case !resp.IsSuccess():
		return apperrors.New(apperrors.ErrUpstream,
			fmt.Sprintf("Ads API returned %d: %s", resp.StatusCode(), resp.Body()), execErr)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return apperrors.New(apperrors.ErrInvalidUpstream, "Ads API response body not parseable", err)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
