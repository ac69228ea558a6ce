package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meetscribe/internal/services"
)

// WhoAmIEndpoint is the Hugging Face identity endpoint.
const WhoAmIEndpoint = "https://huggingface.co/api/whoami-v2"

// ErrUnauthorized marks tokens the API rejected outright.
var ErrUnauthorized = errors.New("hugging face token unauthorized")

var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

// Account describes the identity behind a validated token.
type Account struct {
	Name string
	// Role is the fine-grained token role ("read", "write") when reported.
	Role string
}

// Client calls the whoami endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the whoami URL (for testing).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if strings.TrimSpace(endpoint) != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a token validator.
func NewClient(opts ...Option) *Client {
	c := &Client{endpoint: WhoAmIEndpoint, httpClient: defaultHTTPClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks token against Hugging Face and returns the owning account.
func (c *Client) Validate(ctx context.Context, token string) (Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, services.Wrap(services.ErrConfiguration, "huggingface", "validate token", "empty Hugging Face token", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Account{}, services.Wrap(services.ErrTransient, "huggingface", "validate token", "build validation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Account{}, services.Wrap(services.ErrTransient, "huggingface", "validate token", "contact Hugging Face", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload struct {
			Name string `json:"name"`
			Auth struct {
				AccessToken struct {
					Role string `json:"role"`
				} `json:"accessToken"`
			} `json:"auth"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return Account{}, services.Wrap(services.ErrTransient, "huggingface", "validate token", "parse Hugging Face response", err)
		}
		account := Account{
			Name: strings.TrimSpace(payload.Name),
			Role: strings.TrimSpace(payload.Auth.AccessToken.Role),
		}
		if account.Name == "" {
			account.Name = "huggingface"
		}
		return account, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		base := services.Wrap(services.ErrConfiguration, "huggingface", "validate token", fmt.Sprintf("Hugging Face rejected token (%s)", resp.Status), nil)
		return Account{}, fmt.Errorf("%w: %w", ErrUnauthorized, base)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return Account{}, services.Wrap(services.ErrTransient, "huggingface", "validate token", fmt.Sprintf("unexpected Hugging Face response: %s", msg), nil)
	}
}
