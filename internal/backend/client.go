// Package backend is the HTTP client for the remote vector-search memory
// store. It covers the surface the orchestration engine needs: semantic
// search, entry create/delete, summary-view lifecycle, working-memory
// writes and health checks.
//
// The store is eventually consistent for indexing — a write may not be
// immediately searchable — and reports missing resources distinctly so
// callers can self-heal (see ErrNotFound).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the store reports that a referenced
// resource (memory entry, summary view, session) no longer exists.
var ErrNotFound = errors.New("backend: resource not found")

// maxBodyBytes caps response body reads.
const maxBodyBytes = 1 << 20

// ─── Types ───────────────────────────────────────────────────────────────────

// SearchParams holds the inputs for a semantic search.
type SearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Namespace and UserID are server-side filters; empty means unfiltered.
	Namespace string `json:"namespace,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	// DistanceThreshold excludes results farther than this distance.
	// Zero means no threshold.
	DistanceThreshold float64 `json:"distance_threshold,omitempty"`
}

// SearchHit is one ranked search result. Dist is the store's raw
// similarity distance; lower is closer.
type SearchHit struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Dist     float64  `json:"dist"`
	Topics   []string `json:"topics,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

// Entry is a long-term memory entry to be created.
type Entry struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Tags []string `json:"tags,omitempty"`
}

// SummaryView describes a server-maintained aggregated rolling summary
// over long-term memories, partitioned by GroupBy fields.
type SummaryView struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	GroupBy        []string `json:"group_by"`
	Namespace      string   `json:"namespace,omitempty"`
	TimeWindowDays int      `json:"time_window_days"`
	Prompt         string   `json:"prompt,omitempty"`
}

// Partition is one group's slice of a summary view.
type Partition struct {
	Group       map[string]string `json:"group"`
	Summary     string            `json:"summary"`
	MemoryCount int               `json:"memory_count"`
	ComputedAt  string            `json:"computed_at,omitempty"`
}

// PartitionFilters narrows a partition listing server-side.
type PartitionFilters struct {
	Namespace string
	UserID    string
}

// WorkingMessage is one conversation message staged for background
// extraction into long-term memory.
type WorkingMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// WorkingMemory is the per-session staging log payload.
type WorkingMemory struct {
	Messages           []WorkingMessage `json:"messages"`
	Namespace          string           `json:"namespace,omitempty"`
	UserID             string           `json:"user_id,omitempty"`
	ExtractionStrategy string           `json:"extraction_strategy,omitempty"`
	ExtractionPrompt   string           `json:"extraction_prompt,omitempty"`
}

// ─── Client interface ────────────────────────────────────────────────────────

// Client is the store surface consumed by the orchestration engine.
// Implementations must map a server-side "resource missing" condition
// to ErrNotFound (wrapped or bare).
type Client interface {
	Search(ctx context.Context, p SearchParams) ([]SearchHit, error)
	CreateEntries(ctx context.Context, entries []Entry, namespace string) error
	DeleteEntries(ctx context.Context, ids []string) error
	ListSummaryViews(ctx context.Context) ([]SummaryView, error)
	CreateSummaryView(ctx context.Context, view SummaryView) (SummaryView, error)
	ListPartitions(ctx context.Context, viewID string, f PartitionFilters) ([]Partition, error)
	RunSummaryView(ctx context.Context, viewID string) error
	WriteWorkingMemory(ctx context.Context, sessionID string, wm WorkingMemory) error
	Health(ctx context.Context) error
}

// ─── HTTP implementation ─────────────────────────────────────────────────────

// HTTPClient talks to the store's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates a client for the store at baseURL. apiKey may be
// empty for unauthenticated deployments.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Search runs a semantic search and returns ranked hits.
func (c *HTTPClient) Search(ctx context.Context, p SearchParams) ([]SearchHit, error) {
	var out struct {
		Memories []SearchHit `json:"memories"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/memories/search", p, &out); err != nil {
		return nil, err
	}
	return out.Memories, nil
}

// CreateEntries writes new long-term memory entries.
func (c *HTTPClient) CreateEntries(ctx context.Context, entries []Entry, namespace string) error {
	body := struct {
		Entries   []Entry `json:"entries"`
		Namespace string  `json:"namespace,omitempty"`
	}{Entries: entries, Namespace: namespace}
	return c.do(ctx, http.MethodPost, "/v1/memories", body, nil)
}

// DeleteEntries removes entries by id.
func (c *HTTPClient) DeleteEntries(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return c.do(ctx, http.MethodPost, "/v1/memories/delete", body, nil)
}

// ListSummaryViews returns all summary views known to the store.
func (c *HTTPClient) ListSummaryViews(ctx context.Context) ([]SummaryView, error) {
	var out struct {
		Views []SummaryView `json:"views"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/summary-views", nil, &out); err != nil {
		return nil, err
	}
	return out.Views, nil
}

// CreateSummaryView creates a summary view and returns it with the
// store-assigned id.
func (c *HTTPClient) CreateSummaryView(ctx context.Context, view SummaryView) (SummaryView, error) {
	var out SummaryView
	if err := c.do(ctx, http.MethodPost, "/v1/summary-views", view, &out); err != nil {
		return SummaryView{}, err
	}
	return out, nil
}

// ListPartitions reads the computed partitions of a summary view.
func (c *HTTPClient) ListPartitions(ctx context.Context, viewID string, f PartitionFilters) ([]Partition, error) {
	q := url.Values{}
	if f.Namespace != "" {
		q.Set("namespace", f.Namespace)
	}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}
	path := "/v1/summary-views/" + url.PathEscape(viewID) + "/partitions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Partitions []Partition `json:"partitions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Partitions, nil
}

// RunSummaryView triggers an asynchronous recompute of a summary view.
func (c *HTTPClient) RunSummaryView(ctx context.Context, viewID string) error {
	path := "/v1/summary-views/" + url.PathEscape(viewID) + "/run"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// WriteWorkingMemory appends conversation messages to a session's
// working-memory log for background extraction.
func (c *HTTPClient) WriteWorkingMemory(ctx context.Context, sessionID string, wm WorkingMemory) error {
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/working-memory"
	return c.do(ctx, http.MethodPut, path, wm, nil)
}

// Health checks store availability.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/health", nil, nil)
}

// do builds a request, sends it and decodes the response into out
// (which may be nil). Non-2xx responses become errors; 404 maps to
// ErrNotFound so callers can distinguish missing resources from outages.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "remora/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("backend: %s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend: %s %s: http %d: %s",
			method, path, resp.StatusCode, errorMessage(data, resp.StatusCode))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a server error string from a response body,
// falling back to the raw body or status code.
func errorMessage(data []byte, status int) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Error != "" {
		return env.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		if len(s) > 200 {
			s = s[:200]
		}
		return s
	}
	return strconv.Itoa(status)
}
