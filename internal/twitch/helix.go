package twitch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xaviouche76/twitch-proxy-render/internal/metrics"
)

const defaultHelixURL = "https://api.twitch.tv/helix"

// Verb names a supported Helix lookup.
type Verb string

const (
	VerbLive      Verb = "live"
	VerbUsers     Verb = "users"
	VerbClips     Verb = "clips"
	VerbVideos    Verb = "videos"
	VerbFollowers Verb = "followers"
)

// verbSpec describes how a verb maps onto the Helix resource API: which
// resource path it hits, which query key carries the identifiers, and whether
// identifiers are batched (one repeated key per identifier) or singular.
type verbSpec struct {
	resource string
	queryKey string
	batch    bool
}

var verbSpecs = map[Verb]verbSpec{
	VerbLive:      {resource: "streams", queryKey: "user_login", batch: true},
	VerbUsers:     {resource: "users", queryKey: "login", batch: true},
	VerbClips:     {resource: "clips", queryKey: "broadcaster_id", batch: false},
	VerbVideos:    {resource: "videos", queryKey: "user_id", batch: false},
	VerbFollowers: {resource: "users/follows", queryKey: "to_id", batch: false},
}

// APIError indicates a non-2xx response from the Helix resource API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("helix returned status %d: %s", e.StatusCode, e.Body)
}

// tokenSource supplies a valid app access token for outbound Helix calls.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HelixClient issues batched lookups against the Helix resource API. Responses
// are relayed as raw JSON: the gateway contract is a transparent proxy, not a
// reshaping layer.
type HelixClient struct {
	clientID   string
	baseURL    string // Helix API base URL (configurable for testing)
	tokens     tokenSource
	httpClient *http.Client
}

func NewHelixClient(clientID string, tokens tokenSource, timeout time.Duration) *HelixClient {
	return &HelixClient{
		clientID:   clientID,
		baseURL:    defaultHelixURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch acquires a token and issues one upstream call for the given verb and
// identifiers, returning the upstream response body verbatim. Identifiers are
// passed through as-is: duplicates stay, input order is preserved, and an
// empty set still produces a well-formed (parameterless) call.
func (c *HelixClient) Fetch(ctx context.Context, verb Verb, ids []string) ([]byte, error) {
	spec, ok := verbSpecs[verb]
	if !ok {
		return nil, fmt.Errorf("unsupported verb %q", verb)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, spec.resource)
	if query := buildQuery(spec, ids); query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create helix request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(string(verb)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(string(verb), "error").Inc()
		return nil, fmt.Errorf("failed to execute helix request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(string(verb), "error").Inc()
		return nil, fmt.Errorf("failed to read helix response: %w", err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(string(verb), statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// buildQuery encodes one query parameter per identifier for batch verbs, in
// input order, or a single parameter for singular verbs.
func buildQuery(spec verbSpec, ids []string) string {
	if len(ids) == 0 {
		return ""
	}

	if !spec.batch {
		return spec.queryKey + "=" + url.QueryEscape(ids[0])
	}

	values := url.Values{}
	for _, id := range ids {
		values.Add(spec.queryKey, id)
	}
	return values.Encode()
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
