package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 30 * time.Second

	headerSessionToken = "X-Session-Token"
	headerRequestID    = "X-Request-ID"
)

// Config configures a platform client. BaseURL is required. SessionToken
// is the session-scoped default used by operations that do not take an
// explicit token.
type Config struct {
	BaseURL      string
	SessionToken string
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client calls the deployment platform's HTTP API.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates a platform client from the given configuration.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("platform: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("platform: invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      baseURL,
		sessionToken: cfg.SessionToken,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// Deploy submits manifest text for deployment. The platform assigns the
// session token returned in the result.
func (c *Client) Deploy(ctx context.Context, manifestText string) (DeployResult, error) {
	var result DeployResult
	err := c.do(ctx, "deploy", http.MethodPost, "/api/v1/deployments", c.sessionToken,
		map[string]string{"manifest": manifestText}, &result)
	return result, err
}

// Extend renews a prior deployment identified by session token and
// application name.
func (c *Client) Extend(ctx context.Context, sessionToken, appName string) (DeployResult, error) {
	var result DeployResult
	err := c.do(ctx, "extend", http.MethodPost, "/api/v1/deployments/extend", sessionToken,
		map[string]string{"applicationName": appName}, &result)
	return result, err
}

// Claim takes ownership of a prior deployment.
func (c *Client) Claim(ctx context.Context, sessionToken, appName string) (DeployResult, error) {
	var result DeployResult
	err := c.do(ctx, "claim", http.MethodPost, "/api/v1/deployments/claim", sessionToken,
		map[string]string{"applicationName": appName}, &result)
	return result, err
}

// AddReservation places a hold on a deployment slot.
func (c *Client) AddReservation(ctx context.Context, sessionToken, appName string) error {
	return c.do(ctx, "add reservation", http.MethodPost, "/api/v1/reservations", sessionToken,
		map[string]string{"applicationName": appName}, nil)
}

// RemoveReservation releases a hold on a deployment slot.
func (c *Client) RemoveReservation(ctx context.Context, sessionToken, appName string) error {
	path := "/api/v1/reservations/" + url.PathEscape(appName)
	return c.do(ctx, "remove reservation", http.MethodDelete, path, sessionToken, nil, nil)
}

// ListReservations returns the session's reservations in platform order.
func (c *Client) ListReservations(ctx context.Context, sessionToken string) ([]Reservation, error) {
	var result struct {
		Reservations []Reservation `json:"reservations"`
	}
	err := c.do(ctx, "list reservations", http.MethodGet, "/api/v1/reservations", sessionToken, nil, &result)
	if err != nil {
		return nil, err
	}
	return result.Reservations, nil
}

// ValidateRemote asks the platform to validate manifest text. No session
// token is required.
func (c *Client) ValidateRemote(ctx context.Context, manifestText string) (RemoteValidation, error) {
	var result RemoteValidation
	err := c.do(ctx, "validate", http.MethodPost, "/api/v1/validate", "",
		map[string]string{"manifest": manifestText}, &result)
	return result, err
}

// Schema fetches the platform's published manifest schema. No session
// token is required.
func (c *Client) Schema(ctx context.Context) (SchemaInfo, error) {
	var result SchemaInfo
	err := c.do(ctx, "fetch schema", http.MethodGet, "/api/v1/schema", "", nil, &result)
	return result, err
}

// do performs one request/response cycle. Every failure is reported as a
// *Error naming the operation; payload decoding happens only on success
// envelopes.
func (c *Client) do(ctx context.Context, op, method, path, sessionToken string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &Error{Op: op, Message: "encode request: " + err.Error(), Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Message: "build request: " + err.Error(), Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionToken != "" {
		req.Header.Set(headerSessionToken, sessionToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}

	c.logger.Debug("platform request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var envelope apiEnvelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return &Error{
				Op:         op,
				StatusCode: resp.StatusCode,
				Message:    "decode response: " + err.Error(),
				Cause:      err,
			}
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices || !envelope.Success {
		message := strings.TrimSpace(envelope.Error)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return statusError(op, resp.StatusCode, message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &Error{
				Op:         op,
				StatusCode: resp.StatusCode,
				Message:    "decode payload: " + err.Error(),
				Cause:      err,
			}
		}
	}
	return nil
}
