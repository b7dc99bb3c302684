// Package oauth2 fetches and caches OAuth2 access tokens for use with
// hooks.BearerToken.
package oauth2

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
)

// expiryMargin renews tokens this long before they expire to absorb clock skew.
const expiryMargin = 30 * time.Second

// Config holds OAuth2 configuration
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // For password grant
	Password     string // For password grant
	GrantType    GrantType
}

// Validate checks that the settings for the grant type are present.
func (c *Config) Validate() error {
	if c.TokenURL == "" {
		return errors.New("oauth2: token_url is required")
	}
	switch c.GrantType {
	case "", ClientCredentials:
	case Password:
		if c.Username == "" {
			return errors.New("oauth2: password grant requires username")
		}
	default:
		return fmt.Errorf("oauth2: unsupported grant type: %s", c.GrantType)
	}
	return nil
}

// Token represents an OAuth2 access token
type Token struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
}

// IsExpired reports whether the token expires within the skew margin.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expiryMargin).After(t.ExpiresAt)
}

// Provider handles OAuth2 token acquisition. It is safe for concurrent use;
// concurrent callers share one token request.
type Provider struct {
	config *Config
	client *fetch.Client

	mu    sync.Mutex
	token *Token
}

// NewProvider creates a provider that posts to the token endpoint through
// client. A nil client uses a default fetch.Client.
func NewProvider(config *Config, client *fetch.Client) *Provider {
	if client == nil {
		client = fetch.New()
	}
	return &Provider{config: config, client: client}
}

// TokenSource adapts the provider for hooks.BearerToken.
func (p *Provider) TokenSource() hooks.TokenSource {
	return p.AccessToken
}

// AccessToken returns a valid access token, fetching a new one if necessary.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	token, err := p.GetToken(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// GetToken retrieves a valid token, fetching a new one if necessary.
func (p *Provider) GetToken(ctx context.Context) (*Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil && !p.token.IsExpired() {
		return p.token, nil
	}

	token, err := p.fetchToken(ctx)
	if err != nil {
		return nil, err
	}
	p.token = token
	return token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = nil
}

func (p *Provider) fetchToken(ctx context.Context) (*Token, error) {
	data := url.Values{}
	switch p.config.GrantType {
	case Password:
		data.Set("grant_type", string(Password))
		data.Set("username", p.config.Username)
		data.Set("password", p.config.Password)
	default:
		data.Set("grant_type", string(ClientCredentials))
	}
	if len(p.config.Scopes) > 0 {
		data.Set("scope", strings.Join(p.config.Scopes, " "))
	}

	return p.doTokenRequest(ctx, data)
}

func (p *Provider) doTokenRequest(ctx context.Context, data url.Values) (*Token, error) {
	req := &fetch.RequestConfig{
		Method: "POST",
		Body:   data.Encode(),
		Cache:  fetch.CacheNoStore,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
	}

	// Add client authentication
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		basic, err := hooks.BasicAuth(p.config.ClientID, p.config.ClientSecret)(ctx, req)
		if err != nil {
			return nil, err
		}
		req = basic
	}

	resp, err := p.client.Request(ctx, p.config.TokenURL, req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, resp.BodyString())
	}

	token := &Token{
		AccessToken:  resp.Get("access_token").String(),
		TokenType:    resp.Get("token_type").String(),
		RefreshToken: resp.Get("refresh_token").String(),
		Scope:        resp.Get("scope").String(),
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	if expiresIn := resp.Get("expires_in").Int(); expiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	return token, nil
}
