package qobuz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/desertthunder/qbz/internal/shared"
)

const defaultBaseURL = "https://www.qobuz.com/api.json/0.2/"

// streamCacheSize bounds the stream-URL response cache. The reporter only
// ever needs entries for tracks played recently, so a small window is enough.
const streamCacheSize = 32

// secretProbeTrackID is a known public track used to validate app secrets.
const secretProbeTrackID = 5966783

// Client issues authenticated calls against the Qobuz JSON API and owns the
// short-lived stream-URL cache the reporter reads from.
type Client struct {
	baseURL    string
	appID      string
	secret     string
	secrets    []string
	formatID   int
	httpClient *http.Client
	logger     *log.Logger

	token        string
	userID       int64
	credentialID int64
	label        string

	streamCache *lru.Cache[string, StreamURL]
}

// ClientOpts contains optional overrides for creating a Client.
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient creates an unauthenticated Client from provider configuration.
// Call Login (and SelectSecret if stream URLs are needed) before use.
func NewClient(cfg shared.QobuzConfig, opts ClientOpts) (*Client, error) {
	if cfg.AppID == "" {
		return nil, fmt.Errorf("%w: missing app_id", shared.ErrInvalidConfig)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	cache, err := lru.New[string, StreamURL](streamCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream cache: %w", err)
	}

	formatID := cfg.FormatID
	if formatID == 0 {
		formatID = 27
	}

	return &Client{
		baseURL:     opts.BaseURL,
		appID:       cfg.AppID,
		secrets:     cfg.Secrets,
		formatID:    formatID,
		httpClient:  opts.HTTPClient,
		logger:      shared.WithLogger(opts.Logger, "component", "qobuz"),
		streamCache: cache,
	}, nil
}

// Login authenticates with email and MD5 password hash, capturing the user
// auth token, account identifiers and membership label.
func (c *Client) Login(ctx context.Context, email, passwordHash string) error {
	params := url.Values{}
	params.Set("email", email)
	params.Set("password", passwordHash)
	params.Set("app_id", c.appID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"user/login?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return shared.ErrInvalidCredentials
	case http.StatusBadRequest:
		return shared.ErrInvalidAppID
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: login returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}

	if login.User.Credential.Parameters == nil {
		return shared.ErrIneligibleAccount
	}

	c.token = login.UserAuthToken
	c.userID = login.User.ID
	c.credentialID = login.User.Credential.ID
	c.label = login.User.Credential.Parameters.ShortLabel

	c.logger.Info("logged in", "membership", c.label)
	return nil
}

// SelectSecret probes the configured app secrets against a known track until
// one produces a valid signed stream-URL request.
func (c *Client) SelectSecret(ctx context.Context) error {
	for _, secret := range c.secrets {
		if secret == "" {
			continue
		}

		if _, err := c.streamURL(ctx, fmt.Sprint(secretProbeTrackID), 5, secret); err == nil {
			c.secret = secret
			return nil
		}
	}

	return fmt.Errorf("%w: no configured secret validated", shared.ErrInvalidAppSecret)
}

// IsAuthenticated returns true once Login has succeeded.
func (c *Client) IsAuthenticated() bool {
	return c.token != ""
}

// UserID returns the authenticated account's user id.
func (c *Client) UserID() int64 {
	return c.userID
}

// CredentialID returns the authenticated account's credential id.
func (c *Client) CredentialID() int64 {
	return c.credentialID
}

// MembershipLabel returns the subscription label reported at login.
func (c *Client) MembershipLabel() string {
	return c.label
}

// FormatID returns the configured streaming format id.
func (c *Client) FormatID() int {
	return c.formatID
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0")
	req.Header.Set("X-App-Id", c.appID)
	if c.token != "" {
		req.Header.Set("X-User-Auth-Token", c.token)
	}
}

// doGet performs an authenticated GET and decodes the JSON response into result.
func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, result any) error {
	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req, endpoint, result)
}

// doPost performs an authenticated POST with a JSON body and decodes the
// response into result.
func (c *Client) doPost(ctx context.Context, endpoint string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint, result)
}

func (c *Client) do(req *http.Request, endpoint string, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", shared.ErrInvalidAppSecret, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
