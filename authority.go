package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

const (
	statusEndpoint          = "/auth/status"
	twoFactorVerifyEndpoint = "/auth/2fa/verify-code"
)

// Client is the HTTP client for the identity authority. It doubles as the
// shared outbound client of the application: CredentialStore mirrors every
// credential change into its default Authorization header, so all requests
// issued through it carry the current bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger

	mu     sync.RWMutex
	bearer string
}

var _ Authority = (*Client)(nil)
var _ HeaderMirror = (*Client)(nil)

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an authority client for the given origin.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// SetAuthorization replaces the default bearer credential. An empty token
// removes the header entirely.
func (c *Client) SetAuthorization(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bearer = token
}

// CurrentIdentity asks the authority who the current credential identifies.
func (c *Client) CurrentIdentity(ctx context.Context) (*Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, statusEndpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, errors.Wrap(err, ErrTransientFailure.Category, "failed to decode identity response").
			WithTextCode(ErrTransientFailure.TextCode)
	}

	return &identity, nil
}

// TwoFactorCodePayload is the body of the second-factor verification call.
type TwoFactorCodePayload struct {
	Code string `json:"code"`
}

// Validate rejects codes that cannot possibly verify before a request is
// spent on them.
func (p TwoFactorCodePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Code,
			validation.Required,
			validation.Length(6, 6),
			is.Digit,
		),
	)
}

// VerifyTwoFactorCode completes the second factor with the partial
// credential currently in the default header.
func (c *Client) VerifyTwoFactorCode(ctx context.Context, code string) (*TwoFactorResult, error) {
	payload := TwoFactorCodePayload{Code: code}
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid two-factor code").
			WithCode(errors.CodeBadRequest)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to marshal request")
	}

	resp, err := c.do(ctx, http.MethodPost, twoFactorVerifyEndpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var result TwoFactorResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, ErrTransientFailure.Category, "failed to decode verification response").
			WithTextCode(ErrTransientFailure.TextCode)
	}

	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	bearer := c.bearer
	c.mu.RUnlock()
	if bearer != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// teardown or timeout on the caller's side, not an authority verdict
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, ErrTransientFailure.Category, ErrTransientFailure.Message).
			WithTextCode(ErrTransientFailure.TextCode)
	}

	return resp, nil
}

// checkStatus folds the response status into the error taxonomy: 401/403 are
// an authority verdict on the credential, everything else unexpected is
// transient and must not destroy the credential.
func (c *Client) checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	c.logger.Debug("authority returned %d for %s: %s", resp.StatusCode, resp.Request.URL.Path, string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return statusError(ErrCredentialRejected, resp)
	default:
		return statusError(ErrTransientFailure, resp)
	}
}

// statusError derives a per-response error from a shared sentinel. Cloning
// keeps the sentinel's metadata untouched so callers never see it rewritten
// by a later failure.
func statusError(sentinel *errors.Error, resp *http.Response) error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(map[string]any{
		"status": resp.StatusCode,
		"path":   resp.Request.URL.Path,
	})
}
