package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// UserProfile is the authenticated user's Helix profile, fetched after the
// authorization-code exchange.
type UserProfile struct {
	ID              string
	Login           string
	DisplayName     string
	Description     string
	ProfileImageURL string
}

// UserTokenSource handles the user-delegated authorization-code flow. It is a
// second credential path, distinct from AppTokenSource: the token it obtains
// belongs to a user, is used exactly once to fetch that user's profile, and is
// never cached.
type UserTokenSource struct {
	clientID     string
	clientSecret string
	redirectURI  string
	oauthURL     string // OAuth token endpoint URL (configurable for testing)
	helixURL     string // Helix API base URL (configurable for testing)
	httpClient   *http.Client
}

func NewUserTokenSource(clientID, clientSecret, redirectURI string, timeout time.Duration) *UserTokenSource {
	return &UserTokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		oauthURL:     defaultOAuthURL,
		helixURL:     defaultHelixURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// AuthorizeURL builds the redirect target for the authorization-code flow.
func (s *UserTokenSource) AuthorizeURL(state string) string {
	return fmt.Sprintf(
		"https://id.twitch.tv/oauth2/authorize?client_id=%s&redirect_uri=%s&response_type=code&scope=%s&state=%s",
		url.QueryEscape(s.clientID),
		url.QueryEscape(s.redirectURI),
		url.QueryEscape("user:read:email"),
		url.QueryEscape(state),
	)
}

// ExchangeCode exchanges a redirect code for a user access token and fetches
// the authenticated user's profile with it.
func (s *UserTokenSource) ExchangeCode(ctx context.Context, code string) (*UserProfile, error) {
	accessToken, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.fetchProfile(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("user profile fetch failed: %w", err)
	}

	return profile, nil
}

func (s *UserTokenSource) exchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", s.redirectURI)

	req, err := http.NewRequestWithContext(ctx, "POST", s.oauthURL, nil)
	if err != nil {
		return "", &TokenError{Err: err}
	}
	req.URL.RawQuery = data.Encode()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &TokenError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TokenError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("authorization server rejected code exchange"),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", &TokenError{Err: err}
	}

	if tokenResp.AccessToken == "" {
		return "", &TokenError{Err: fmt.Errorf("token response contains no access_token")}
	}

	return tokenResp.AccessToken, nil
}

func (s *UserTokenSource) fetchProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.helixURL+"/users", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", s.clientID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute user request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: "user lookup rejected"}
	}

	var userResp struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			DisplayName     string `json:"display_name"`
			Description     string `json:"description"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	if len(userResp.Data) == 0 {
		return nil, fmt.Errorf("no user data returned")
	}

	u := userResp.Data[0]
	return &UserProfile{
		ID:              u.ID,
		Login:           u.Login,
		DisplayName:     u.DisplayName,
		Description:     u.Description,
		ProfileImageURL: u.ProfileImageURL,
	}, nil
}
