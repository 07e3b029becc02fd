package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/kiyi/internal/shared"
)

// APIService performs GET requests against an optional base URL and falls back to the
// filesystem for references that are not URLs.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a service. An empty baseURL means relative references are file paths.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to url and returns the raw response.
func (a *APIService) Get(ctx context.Context, url string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var jsonData any
		if err := json.Unmarshal(body, &jsonData); err == nil {
			apiResp.IsJSON = true
			apiResp.JSONData = jsonData
		}
	}

	return apiResp, nil
}

// Resolve turns ref into an absolute URL, or returns ok=false when ref should be read from disk.
func (a *APIService) Resolve(ref string) (string, bool) {
	switch {
	case isURL(ref):
		return ref, true
	case a.baseURL != "" && !filepath.IsAbs(ref):
		return a.baseURL + "/" + strings.TrimPrefix(ref, "/"), true
	default:
		return ref, false
	}
}

// Fetch returns the bytes behind ref.
func (a *APIService) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", shared.ErrInvalidInput)
	}

	url, remote := a.Resolve(ref)
	if !remote {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		return data, nil
	}

	resp, err := a.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: GET %s returned %d", shared.ErrServiceUnavailable, url, resp.StatusCode)
	}
	return resp.Body, nil
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
