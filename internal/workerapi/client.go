package workerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nodo1014/indexer/internal/config"
)

// Client provides typed access to the worker's HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a client from configuration.
func New(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Worker.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Worker.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// NewWithBaseURL builds a client against an explicit base URL, mainly for tests.
func NewWithBaseURL(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Submit enqueues transcription jobs on the worker.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.post(ctx, "/api/process", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs returns the worker's job table.
func (c *Client) Jobs(ctx context.Context) (*JobsResponse, error) {
	var resp JobsResponse
	if err := c.get(ctx, "/api/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Control applies a pause/resume/stop/delete action to one job. The worker
// returns no structured payload beyond the HTTP status.
func (c *Client) Control(ctx context.Context, jobID string, action ControlAction) error {
	return c.post(ctx, "/api/jobs/"+url.PathEscape(jobID)+"/"+string(action), nil, nil)
}

// DownloadSubtitle fetches a subtitle for one file in one language.
func (c *Client) DownloadSubtitle(ctx context.Context, req DownloadSubtitleRequest) (*DownloadSubtitleResponse, error) {
	var resp DownloadSubtitleResponse
	if err := c.post(ctx, "/api/download_subtitle", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultilingualSearch searches for a subtitle across an ordered language list.
// The worker performs its own per-language iteration for this endpoint; the
// acquisition pipeline uses it one language at a time to keep per-attempt
// accounting on the client.
func (c *Client) MultilingualSearch(ctx context.Context, req MultilingualSearchRequest) (*MultilingualSearchResponse, error) {
	var resp MultilingualSearchResponse
	if err := c.post(ctx, "/api/multilingual_subtitle_search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDirectories returns the browsable directories under a path.
func (c *Client) ListDirectories(ctx context.Context, currentPath string) (*ListDirectoriesResponse, error) {
	query := url.Values{"current_path": []string{currentPath}}
	var resp ListDirectoriesResponse
	if err := c.get(ctx, "/api/browse", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScanFiles returns the media files under a path.
func (c *Client) ScanFiles(ctx context.Context, scanPath string, filterVideo, filterAudio bool) (*ScanFilesResponse, error) {
	query := url.Values{
		"scan_path":    []string{scanPath},
		"filter_video": []string{strconv.FormatBool(filterVideo)},
		"filter_audio": []string{strconv.FormatBool(filterAudio)},
	}
	var resp ScanFilesResponse
	if err := c.get(ctx, "/api/files", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request %s: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(path, resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

// StatusError reports a non-2xx worker response, carrying the worker's
// detail message when one was provided.
type StatusError struct {
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("worker %s: %s (HTTP %d)", e.Path, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("worker %s: HTTP %d", e.Path, e.StatusCode)
}

func newStatusError(path string, status int, payload []byte) *StatusError {
	var envelope errorDetail
	if err := json.Unmarshal(payload, &envelope); err == nil && strings.TrimSpace(envelope.Detail) != "" {
		return &StatusError{Path: path, StatusCode: status, Detail: strings.TrimSpace(envelope.Detail)}
	}
	return &StatusError{Path: path, StatusCode: status}
}
