package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

// APIError is a non-2xx answer from the API. Message is the server's error
// string and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return e.Message
}

// ServerMessage returns the server's error string, or fallback when err
// carries none (including transport failures).
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *applog.Logger
}

// NewClient talks to the API at baseURL. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// WithLogger makes the client log every request at debug level and transport
// failures at warn.
func (c *Client) WithLogger(logger *applog.Logger) *Client {
	c.logger = logger.WithComponent(applog.ComponentConsole)
	return c
}

func (c *Client) CreateExpense(ctx context.Context, itemName string, amount core.Amount) (core.Expense, error) {
	payload := map[string]any{
		"itemName": itemName,
		"amount":   json.Number(amount.String()),
	}
	var out struct {
		Expense core.Expense `json:"expense"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/expenses", payload, &out); err != nil {
		return core.Expense{}, err
	}
	return out.Expense, nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var out struct {
		Expenses []core.Expense `json:"expenses"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/expenses", nil, &out); err != nil {
		return nil, err
	}
	if out.Expenses == nil {
		out.Expenses = []core.Expense{}
	}
	return out.Expenses, nil
}

func (c *Client) Total(ctx context.Context) (core.Amount, error) {
	var out struct {
		Total core.Amount `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/expenses/total", nil, &out); err != nil {
		return core.Amount{}, err
	}
	return out.Total, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/expenses/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "API request failed",
				applog.FieldMethod, method,
				applog.FieldPath, path,
				applog.FieldError, err.Error(),
				applog.FieldErrorType, applog.ErrorTypeNetwork)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.DebugContext(ctx, "API request",
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldStatusCode, resp.StatusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
