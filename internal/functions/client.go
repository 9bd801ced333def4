package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
)

// Function names used by the core.
const (
	VerifyPayment = "verify-payment"
	TextToSpeech  = "text-to-speech"
)

// envelope is the common response shape of every function.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

const defaultTimeout = 15 * time.Second

func timeout(cfg config.FunctionsConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return defaultTimeout
	}
	return time.Duration(cfg.Timeout) * time.Second
}

// Client calls serverless functions over HTTP.
type Client struct {
	http *resty.Client
}

// New creates a client from configuration. It returns ErrDisabled when
// functions are turned off.
func New(cfg config.FunctionsConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	return NewWithResty(resty.New(), cfg)
}

// NewWithResty creates a client on a caller-supplied resty client.
func NewWithResty(rc *resty.Client, cfg config.FunctionsConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url is empty", ErrDisabled)
	}
	rc.SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout(cfg)).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rc.SetHeader("apikey", cfg.APIKey)
	}
	return &Client{http: rc}, nil
}

// Invoke POSTs body to the named function with the caller's bearer token
// and decodes the response into out (which may be nil).
func (c *Client) Invoke(ctx context.Context, name, bearer string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if bearer != "" {
		req.SetAuthToken(bearer)
	}

	resp, err := req.Post("/functions/v1/" + url.PathEscape(name))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFunctionFailed, name, err)
	}

	var env envelope
	raw := resp.Body()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.IsSuccess() {
			return fmt.Errorf("%w: %s: decoding response: %w", ErrFunctionFailed, name, err)
		}
	}

	if resp.IsError() || (env.Success != nil && !*env.Success) {
		msg := env.Error
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("%w: %s: %s", ErrFunctionFailed, name, msg)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %s: decoding result: %w", ErrFunctionFailed, name, err)
		}
	}
	return nil
}
