package makerworks

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the bearer credential attached to each outgoing
// request. An empty string means "no credential" and no Authorization
// header is sent. The session store implements this interface.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, useful for one-off scripts and tests.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// Client handles HTTP communication with the MakerWorks API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	tokens         TokenSource
	onUnauthorized func()
	logger         *slog.Logger
}

// NewClient creates a new client instance.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	// Build TLS config
	tlsConfig := cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.SkipTLSVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsConfig,
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.HTTPTimeout, Transport: transport},
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:      cfg.UserAgent,
		tokens:         cfg.TokenSource,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}, nil
}

// BaseURL returns the configured API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
// Both body and out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH request with a JSON body and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	resp, err := c.roundTrip(ctx, method, path, bodyReader, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.decodeResponse(resp, out)
}

// upload issues a multipart/form-data POST with a single file field and
// optional extra form fields.
func (c *Client) upload(ctx context.Context, path, field, filename string, r io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.decodeResponse(resp, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return resp, nil
}

func (c *Client) decodeResponse(resp *http.Response, out any) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp.StatusCode, respBody, resp.Header.Get("X-Request-ID"))
		c.logger.Debug("api error",
			slog.Int("status", resp.StatusCode),
			slog.String("detail", apiErr.Detail),
		)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrConnection, err)
	}
	return nil
}

// decodeAPIError parses an error body of the form {"detail": ...} where
// detail is either a plain string or a list of field validation failures.
// An unparsable body degrades to a bare status-code error.
func decodeAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	if len(body) == 0 {
		return apiErr
	}

	var plain struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Detail != "" {
		apiErr.Detail = plain.Detail
		return apiErr
	}

	var structured struct {
		Detail []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &structured); err == nil && len(structured.Detail) > 0 {
		for _, d := range structured.Detail {
			field := ""
			if len(d.Loc) > 0 {
				field = fmt.Sprint(d.Loc[len(d.Loc)-1])
			}
			apiErr.Fields = append(apiErr.Fields, FieldError{Field: field, Message: d.Msg})
		}
	}
	return apiErr
}
