package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

const maxResponseBytes = 4 << 20

var ErrForeignSession = errors.New("session was not opened by this browser client")

// StatusError is a non-2xx answer from the browser service.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the browser-automation service. It opens sessions and
// executes activities inside them.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Headless       bool
}

var (
	_ ports.BrowserFactory = (*Client)(nil)
	_ ports.ActivityRunner = (*Client)(nil)
)

func NewClient(settings domain.BrowserSettings) *Client {
	return &Client{
		BaseURL:        settings.BaseURL,
		HTTPClient:     &http.Client{},
		RequestTimeout: settings.Timeout,
		Headless:       settings.Headless,
	}
}

type proxyPayload struct {
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type openRequest struct {
	Email    string              `json:"email"`
	Mode     domain.DeviceMode   `json:"mode"`
	Headless bool                `json:"headless"`
	Proxy    *proxyPayload       `json:"proxy,omitempty"`
	State    domain.SessionState `json:"state"`
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *Client) Open(ctx context.Context, req ports.OpenRequest) (ports.BrowserSession, error) {
	payload := openRequest{
		Email:    req.Account.Email,
		Mode:     req.Mode,
		Headless: c.Headless,
		State:    req.State,
	}
	if address := req.Account.Proxy.Address(); address != "" {
		payload.Proxy = &proxyPayload{
			URL:      address,
			Username: req.Account.Proxy.Username,
			Password: req.Account.Proxy.Password,
		}
	}

	var created idResponse
	if err := c.do(ctx, "open session", http.MethodPost, "/sessions", nil, payload, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, errors.New("open session: response missing id")
	}

	return &Session{client: c, id: created.ID, mode: req.Mode}, nil
}

type activityRequest struct {
	PageID      string                   `json:"page_id"`
	Mode        domain.DeviceMode        `json:"mode"`
	AccessToken string                   `json:"access_token,omitempty"`
	Dashboard   domain.DashboardSnapshot `json:"dashboard"`
}

func (c *Client) Run(ctx context.Context, req ports.ActivityRequest) error {
	session, ok := req.Session.(*Session)
	if !ok || session.client != c {
		return ErrForeignSession
	}

	payload := activityRequest{
		Mode:        req.Mode,
		AccessToken: req.AccessToken,
		Dashboard:   req.Dashboard,
	}
	if req.Page != nil {
		payload.PageID = req.Page.ID()
	}

	op := "run " + string(req.Kind)
	return c.do(ctx, op, http.MethodPost, session.path("activities", string(req.Kind)), nil, payload, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	endpoint, err := buildURL(c.BaseURL, path, query)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeStatusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func decodeStatusError(op string, resp *http.Response) error {
	statusErr := &StatusError{Op: op, Code: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err == nil && len(data) > 0 {
		var payload errorResponse
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			statusErr.Message = payload.Error
		} else {
			statusErr.Message = strings.TrimSpace(string(data))
		}
	}

	return statusErr
}

func buildURL(baseURL, path string, query url.Values) (string, error) {
	if baseURL == "" {
		return "", errors.New("browser service base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse browser service base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("browser service base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("browser service base url host is required")
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + path
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
