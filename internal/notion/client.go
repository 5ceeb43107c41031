// Package notion is a small client for the parts of the Notion API the
// publisher needs: page creation and block appends.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/md2notion/internal/block"
	"github.com/dgallion1/md2notion/internal/richtext"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
)

// Client calls the Notion REST API with an integration token.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	stats      *Stats
}

func NewClient(baseURL, token, version string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		version: version,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: NewStats(time.Hour),
	}
}

// CreatePageRequest describes a child page of an existing page.
type CreatePageRequest struct {
	ParentPageID string
	Title        string
	Children     []block.Block // Optional; at most one append batch.
}

// Page is the subset of the page object the publisher uses.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type parent struct {
	PageID string `json:"page_id"`
}

type titleProperty struct {
	Title []richtext.RichText `json:"title"`
}

type createPageBody struct {
	Parent     parent                   `json:"parent"`
	Properties map[string]titleProperty `json:"properties"`
	Children   []block.Block            `json:"children,omitempty"`
}

// CreatePage creates a page under req.ParentPageID.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	body := createPageBody{
		Parent: parent{PageID: req.ParentPageID},
		Properties: map[string]titleProperty{
			"title": {Title: []richtext.RichText{richtext.Plain(req.Title)}},
		},
		Children: req.Children,
	}

	var page Page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page, nil
}

type appendBody struct {
	Children []block.Block `json:"children"`
}

type appendResponse struct {
	Results []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"results"`
}

// AppendChildren appends blocks under blockID and returns the ids of the
// created blocks in order.
func (c *Client) AppendChildren(ctx context.Context, blockID string, blocks []block.Block) ([]string, error) {
	var resp appendResponse
	path := "/v1/blocks/" + blockID + "/children"
	if err := c.do(ctx, http.MethodPatch, path, appendBody{Children: blocks}, &resp); err != nil {
		return nil, fmt.Errorf("append children to %s: %w", blockID, err)
	}

	ids := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.ID
	}
	if len(ids) != len(blocks) {
		return ids, fmt.Errorf("append children to %s: sent %d blocks, got %d ids", blockID, len(blocks), len(ids))
	}
	return ids, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Notion-Version", c.version)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.stats.Record(time.Since(start).Milliseconds(), 0)
		return fmt.Errorf("notion api: %w", err)
	}
	defer resp.Body.Close()
	c.stats.Record(time.Since(start).Milliseconds(), resp.StatusCode)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Stats returns the rolling request latency stats.
func (c *Client) Stats() *Stats { return c.stats }

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
