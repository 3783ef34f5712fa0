package adsapi

import (
	"context"
	"sync"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/go-resty/resty/v2"
)

// Same LWA exchange as the SP-API side, but a separate cache: the Ads API
// uses its own client credentials and the two tokens expire independently.
const tokenExpiryMargin = 60 * time.Second

type tokenSource struct {
	clientID     string
	clientSecret string
	refreshToken string
	endpoint     string
	rest         *resty.Client

	now func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(clientID, clientSecret, refreshToken, endpoint string) *tokenSource {
	return &tokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		endpoint:     endpoint,
		rest:         resty.New().SetTimeout(15 * time.Second),
		now:          time.Now,
	}
}

func (ts *tokenSource) AccessToken(ctx context.Context) (string, error) {
	if ts.clientID == "" || ts.clientSecret == "" || ts.refreshToken == "" {
		return "", apperrors.NewCredsMissing("Ads API client_id, client_secret and refresh_token are required")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	resp, err := ts.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": ts.refreshToken,
			"client_id":     ts.clientID,
			"client_secret": ts.clientSecret,
		}).
		SetResult(&tok).
		Post(ts.endpoint)
	if err != nil {
		return "", apperrors.New(apperrors.ErrTokenExchange, "Ads token exchange request failed", err)
	}
	if !resp.IsSuccess() {
		return "", apperrors.New(apperrors.ErrTokenExchange,
			"Ads token endpoint returned "+resp.Status()+": "+string(resp.Body()), nil)
	}
	if tok.AccessToken == "" {
		return "", apperrors.New(apperrors.ErrInvalidUpstream, "Ads token response missing access_token", nil)
	}

	ts.token = tok.AccessToken
	ts.expiresAt = ts.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin)
	return ts.token, nil
}
