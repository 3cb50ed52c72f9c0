package gclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
)

// DefaultExpandTimeout bounds a single short-link expansion.
const DefaultExpandTimeout = 10 * time.Second

var _ contract.URLExpander = &HTTPExpander{} // Compile-time check

// HTTPExpander follows redirects of short links such as forms.gle.
type HTTPExpander struct {
	client *http.Client
}

// NewHTTPExpander returns an expander whose requests time out after timeout.
func NewHTTPExpander(timeout time.Duration) *HTTPExpander {
	return &HTTPExpander{client: &http.Client{Timeout: timeout}}
}

// Expand implements contract.URLExpander by returning the URL of the final response.
func (e *HTTPExpander) Expand(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", shortURL, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", shortURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("failed to expand %s: %s", shortURL, resp.Status)
	}
	return resp.Request.URL.String(), nil
}
