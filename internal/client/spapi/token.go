package spapi

import (
	"context"
	"sync"
	"time"

	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/apperrors"
	"github.com/bhargav-patel-97/amazon-seller-dashboard/internal/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// Access tokens are treated as expired this long before the upstream says
// they are, so a token never dies mid-request.
const tokenExpiryMargin = 60 * time.Second

type lwaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenSource exchanges a long-lived LWA refresh token for short-lived access
// tokens and caches the result. Single-tenant: one seller account per
// process, one cached token per source.
type TokenSource struct {
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

func NewTokenSource(clientID, clientSecret, refreshToken, endpoint string) *TokenSource {
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		endpoint:     endpoint,
		rest:         resty.New().SetTimeout(15 * time.Second),
		now:          time.Now,
	}
}

// AccessToken returns a valid bearer token, refreshing when the cached one
// has passed its adjusted expiry.
func (ts *TokenSource) AccessToken(ctx context.Context) (string, error) {
	if ts.clientID == "" || ts.clientSecret == "" || ts.refreshToken == "" {
		return "", apperrors.NewCredsMissing("SP-API client_id, client_secret and refresh_token are required")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	var tok lwaTokenResponse
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
		return "", apperrors.New(apperrors.ErrTokenExchange, "LWA token exchange request failed", err)
	}
	if !resp.IsSuccess() {
		return "", apperrors.New(apperrors.ErrTokenExchange,
			"LWA token endpoint returned "+resp.Status()+": "+string(resp.Body()), nil)
	}
	if tok.AccessToken == "" {
		return "", apperrors.New(apperrors.ErrInvalidUpstream, "LWA token response missing access_token", nil)
	}

	ts.token = tok.AccessToken
	ts.expiresAt = ts.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin)
	logger.Debug("refreshed LWA access token", "expires_in", tok.ExpiresIn)
	return ts.token, nil
}
