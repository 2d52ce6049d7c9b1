// Package proxy reads the adoption table from a remote sheets proxy that
// serves {"data":[{header:value}],"headers":[...]}.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelterstats/internal/core"
	ports "shelterstats/internal/sheets"
)

var ErrMissingURL = errors.New("missing sheets proxy url (set SHEETS_PROXY_URL)")

// maxBody caps the size of a proxy response.
const maxBody = 8 << 20

// Payload is the wire shape of the proxy response.
type Payload struct {
	Data    []map[string]string `json:"data"`
	Headers []string            `json:"headers"`
}

// StatusError reports a non-2xx answer from the proxy.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("proxy returned status %d", e.Code)
	}
	return fmt.Sprintf("proxy returned status %d: %s", e.Code, e.Body)
}

// Client fetches the table from a proxy URL.
type Client struct {
	url  string
	http *http.Client
}

var (
	_ ports.TableReader  = (*Client)(nil)
	_ ports.MatrixReader = (*Client)(nil)
	_ ports.Named        = (*Client)(nil)
)

// New returns a proxy client. A nil httpClient gets a pooled default.
func New(url string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}
	if httpClient == nil {
		httpClient = ports.NewHTTPClient(timeout)
	}
	return &Client{url: url, http: httpClient}, nil
}

// ReadTable implements ports.TableReader.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	p, err := c.fetch(ctx)
	if err != nil {
		return core.Table{}, err
	}
	return core.Table{Headers: p.Headers, Rows: p.Data}, nil
}

// Values rebuilds the header-first matrix from the proxy document, so a
// proxy source can itself back the boundary endpoint.
func (c *Client) Values(ctx context.Context) ([][]string, error) {
	p, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(p.Data)+1)
	out = append(out, append([]string(nil), p.Headers...))
	for _, row := range p.Data {
		cells := make([]string, len(p.Headers))
		for i, h := range p.Headers {
			cells[i] = row[h]
		}
		out = append(out, cells)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Payload{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var p Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode proxy response: %w", err)
	}
	if len(p.Data) == 0 {
		return Payload{}, ports.ErrNoData
	}
	return p, nil
}

func (c *Client) Source() string { return "sheets-proxy" }

// Close drops idle upstream connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
