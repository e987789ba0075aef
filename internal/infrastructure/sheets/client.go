// Package sheets is the HTTP client for the spreadsheet-backed record store.
// Request and response bodies are forwarded verbatim.
package sheets

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

	"github.com/sollo/sheet-admin/internal/core/domain"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
)

// Config holds the record store settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.RecordStore.
type Client struct {
	base string
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New("sheets: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) List(ctx context.Context) (domain.Record, error) {
	return c.do(ctx, http.MethodGet, c.base, nil, "list")
}

func (c *Client) Create(ctx context.Context, record domain.Record) (domain.Record, error) {
	return c.do(ctx, http.MethodPost, c.base, record, "create")
}

func (c *Client) Update(ctx context.Context, index int, record domain.Record) (domain.Record, error) {
	return c.do(ctx, http.MethodPatch, c.rowURL(index), record, "update")
}

func (c *Client) Delete(ctx context.Context, index int) (domain.Record, error) {
	return c.do(ctx, http.MethodDelete, c.rowURL(index), nil, "delete")
}

func (c *Client) rowURL(index int) string {
	return c.base + "/" + strconv.Itoa(index)
}

func (c *Client) do(ctx context.Context, method, url string, body domain.Record, op string) (domain.Record, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("sheets %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{Op: op, Status: resp.StatusCode}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return domain.Record("null"), nil
	}
	if !json.Valid(raw) {
		return nil, &domain.UpstreamError{Op: op, Status: resp.StatusCode, Err: errors.New("response is not JSON")}
	}
	return domain.Record(raw), nil
}
