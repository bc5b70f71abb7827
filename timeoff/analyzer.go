package timeoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/dayoff/generic"
)

// Analyzer produces advisory rejection suggestions for a request reason.
// Suggestions are informational only and never affect balances or admission.
type Analyzer interface {
	Analyze(ctx context.Context, reason string) ([]string, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, reason string) ([]string, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, reason string) ([]string, error) {
	return f(ctx, reason)
}

// NopAnalyzer returns no suggestions.
type NopAnalyzer struct{}

func (NopAnalyzer) Analyze(context.Context, string) ([]string, error) { return nil, nil }

// HTTPAnalyzer calls an external analysis endpoint.
//
//	POST {URL}  {"description": "..."}
//	200         {"suggestions": ["...", "..."]}
type HTTPAnalyzer struct {
	URL    string
	Client *http.Client
}

// NewHTTPAnalyzer creates an analyzer for url with a request timeout.
func NewHTTPAnalyzer(url string, timeout time.Duration) *HTTPAnalyzer {
	return &HTTPAnalyzer{URL: url, Client: &http.Client{Timeout: timeout}}
}

type analyzeRequest struct {
	Description string `json:"description"`
}

type analyzeResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, reason string) ([]string, error) {
	body, err := json.Marshal(analyzeRequest{Description: reason})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrSuggestionsUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrSuggestionsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analyzer returned %s", generic.ErrSuggestionsUnavailable, resp.Status)
	}
	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", generic.ErrSuggestionsUnavailable, err)
	}
	return out.Suggestions, nil
}
