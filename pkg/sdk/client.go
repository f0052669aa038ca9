// Package sdk provides the client-side library for the Visitly HTTP API.
package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/visitly-dev/visitly/pkg/schema"
)

// Client talks to a Visitly daemon over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the daemon at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping records a visit. forwardedFor, when non-empty, is sent as the
// X-Forwarded-For header so the daemon attributes the visit to that address
// rather than to this client's socket.
func (c *Client) Ping(forwardedFor string) (schema.PingResult, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/ping", nil)
	if err != nil {
		return schema.PingResult{}, err
	}
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}

	var res schema.PingResult
	if err := c.do(req, &res); err != nil {
		return schema.PingResult{}, err
	}
	return res, nil
}

// Summary fetches the aggregate counts.
func (c *Client) Summary() (schema.Summary, error) {
	var s schema.Summary
	err := c.get("/stats/summary", nil, &s)
	return s, err
}

// PingsByDay fetches the day-bucketed series. Empty strings fall back to
// the server-side defaults.
func (c *Client) PingsByDay(period, countType string) ([]schema.DayCount, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if countType != "" {
		q.Set("countType", countType)
	}
	var buckets []schema.DayCount
	err := c.get("/pings/grouped", q, &buckets)
	return buckets, err
}

// UniqueActivity fetches one page of the per-visitor rollup. Zero and empty
// values fall back to the server-side defaults.
func (c *Client) UniqueActivity(page, pageSize int, sortBy, sortOrder string) (schema.ActivityPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if sortBy != "" {
		q.Set("sortBy", sortBy)
	}
	if sortOrder != "" {
		q.Set("sortOrder", sortOrder)
	}
	var p schema.ActivityPage
	err := c.get("/pings/unique-activity", q, &p)
	return p, err
}

// Health checks daemon liveness.
func (c *Client) Health() error {
	return c.get("/healthz", nil, nil)
}

func (c *Client) get(path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
