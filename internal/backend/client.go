// Package backend talks JSON over HTTP to the catalog, search, cart and
// shipping-quote services and maps their payloads onto domain types. Callers
// only ever see *Error values.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/metrics"
)

// Endpoints are the base URLs of the remote services. An empty URL makes
// every call to that service fail with ErrNotConfigured.
type Endpoints struct {
	Catalog  string
	Search   string
	Cart     string
	Shipping string
}

// Client calls the remote services.
type Client struct {
	endpoints Endpoints
	http      *http.Client
}

// NewClient creates a Client. A nil httpClient means a client with a 10s
// timeout.
func NewClient(endpoints Endpoints, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoints: endpoints, http: httpClient}
}

// request describes one call.
type request struct {
	op     string
	method string
	base   string
	path   string
	query  url.Values
	body   any
	// notFound marks 404 as ErrNotFound rather than ErrUnavailable.
	notFound bool
}

// do performs r and decodes a JSON response into out when out is non-nil.
// It reports whether the response carried a body.
func (c *Client) do(ctx context.Context, r request, out any) (bool, error) {
	if strings.TrimSpace(r.base) == "" {
		return false, c.fail(r.op, ErrNotConfigured, 0, nil)
	}
	u := strings.TrimRight(r.base, "/") + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return false, c.fail(r.op, ErrUnavailable, 0, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return false, c.fail(r.op, ErrUnavailable, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return false, c.fail(r.op, ErrUnavailable, 0, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound && r.notFound {
		return false, c.fail(r.op, ErrNotFound, res.StatusCode, nil)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		var detail error
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		if m := strings.TrimSpace(string(msg)); m != "" {
			detail = errors.New(m)
		}
		return false, c.fail(r.op, ErrUnavailable, res.StatusCode, detail)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return false, c.fail(r.op, ErrUnavailable, res.StatusCode, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, c.fail(r.op, ErrUnavailable, res.StatusCode, fmt.Errorf("decode response: %w", err))
		}
	}
	return true, nil
}

func (c *Client) fail(op string, kind error, status int, err error) error {
	e := &Error{Op: op, Kind: kind, Status: status, Err: err}
	metrics.BackendFailures.WithLabelValues(op, kindLabel(kind)).Inc()
	if kind != ErrNotFound {
		log.Printf("ERROR: %v", e)
	}
	return e
}
