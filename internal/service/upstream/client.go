package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/medorders/internal/logger"
	"github.com/nkiryanov/medorders/internal/models"
)

const (
	CodeTransport = "transport"
	CodeStatus    = "status"
	CodeDecode    = "decode"
	CodeEncode    = "encode"
)

const DefaultTimeout = 5 * time.Second

type Error struct {
	Code       string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %s, url: %s, status_code: %d, error: %v", e.Code, e.URL, e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Config struct {
	// Full endpoint URLs, suffixes already applied
	OrdersURL string
	AlertURL  string
	UpdateURL string

	// Timeout applied to every single request
	Timeout time.Duration
}

type Client struct {
	cfg Config

	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, httpClient *http.Client, l logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		cfg:    cfg,
		client: httpClient,
		logger: l,
	}
}

// OrdersURL is the first page of the orders listing
func (c *Client) OrdersURL() string {
	return c.cfg.OrdersURL
}

// GetOrdersPage fetches one page of orders. Any non 2xx status is an error
func (c *Client) GetOrdersPage(ctx context.Context, url string) (models.OrdersPage, error) {
	var page models.OrdersPage

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page, &Error{Code: CodeTransport, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close() // nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		c.logger.Warn("Failed to decode orders page", "url", url, "error", err)
		return page, &Error{Code: CodeDecode, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	c.logger.Debug("Orders page fetched", "url", url, "orders", len(page.Orders))
	return page, nil
}

// PostAlert sends alert message to the alert API
func (c *Client) PostAlert(ctx context.Context, message string) error {
	return c.postJSON(ctx, c.cfg.AlertURL, struct {
		Message string `json:"message"`
	}{Message: message})
}

// PostOrderUpdate sends the whole order to the update API
func (c *Client) PostOrderUpdate(ctx context.Context, order models.Order) error {
	return c.postJSON(ctx, c.cfg.UpdateURL, order)
}

func (c *Client) postJSON(ctx context.Context, url string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return &Error{Code: CodeEncode, URL: url, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Error{Code: CodeTransport, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	// Drain so the connection may be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends request and checks the status code. On success the caller owns the body
func (c *Client) do(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeTransport, URL: url, Err: fmt.Errorf("failed to send request: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		c.logger.Warn("Unexpected status code", "method", req.Method, "url", url, "status_code", resp.StatusCode)
		return nil, &Error{Code: CodeStatus, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	return resp, nil
}
