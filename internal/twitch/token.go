package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/xaviouche76/twitch-proxy-render/internal/metrics"
)

const (
	defaultOAuthURL = "https://id.twitch.tv/oauth2/token"

	// tokenExpiryMargin is how long before the stated expiry a cached token
	// stops being served and a fresh one is acquired.
	tokenExpiryMargin = 60 * time.Second
)

// TokenError indicates the authorization server did not return a usable token.
type TokenError struct {
	StatusCode int
	Err        error
}

func (e *TokenError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// AppTokenSource acquires app access tokens via the client-credentials grant
// and caches them until shortly before expiry. Refresh is single-flight: the
// mutex is held across the exchange, so concurrent callers wait for one
// network round trip instead of each paying their own.
type AppTokenSource struct {
	mu           sync.Mutex
	clientID     string
	clientSecret string
	oauthURL     string // OAuth token endpoint URL (configurable for testing)
	httpClient   *http.Client
	clock        clockwork.Clock

	token     string
	expiresAt time.Time
}

func NewAppTokenSource(clientID, clientSecret string, timeout time.Duration, clock clockwork.Clock) *AppTokenSource {
	return &AppTokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		oauthURL:     defaultOAuthURL,
		httpClient:   &http.Client{Timeout: timeout},
		clock:        clock,
	}
}

// Token returns a valid app access token, reusing the cached one while it is
// at least tokenExpiryMargin away from expiry.
func (s *AppTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.clock.Now().Add(tokenExpiryMargin).Before(s.expiresAt) {
		metrics.TokenCacheHitsTotal.Inc()
		return s.token, nil
	}

	value, expiresIn, err := s.exchange(ctx)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues("client_credentials", "error").Inc()
		return "", err
	}
	metrics.TokenExchangesTotal.WithLabelValues("client_credentials", "ok").Inc()

	s.token = value
	s.expiresAt = s.clock.Now().Add(time.Duration(expiresIn) * time.Second)

	return value, nil
}

func (s *AppTokenSource) exchange(ctx context.Context) (token string, expiresIn int, err error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", s.oauthURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, &TokenError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, &TokenError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &TokenError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, &TokenError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("authorization server rejected client credentials"),
		}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, &TokenError{Err: err}
	}

	// A 200 without an access_token field is still a failure; proceeding with
	// an empty bearer value would turn every dependent call into a confusing 401.
	if result.AccessToken == "" {
		return "", 0, &TokenError{Err: fmt.Errorf("token response contains no access_token")}
	}

	return result.AccessToken, result.ExpiresIn, nil
}
