package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/quizlab/quizd/internal/resilience"
)

const (
	defaultBaseURL = "https://api.exa.ai"
	defaultTimeout = 30 * time.Second
)

// NoResultsContext is the sentinel context block returned when a search
// succeeds but matches nothing. An empty result set is not an error.
const NoResultsContext = "未找到相关搜索结果"

// Client performs searches against the Exa AI API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query         string   `json:"query"`
	UseAutoprompt bool     `json:"useAutoprompt"`
	NumResults    int      `json:"numResults"`
	Contents      Contents `json:"contents"`
}

// Contents selects which result payloads to return.
type Contents struct {
	Text       bool `json:"text"`
	Highlights bool `json:"highlights"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Results []Result `json:"results"`
}

// Result is a single ranked search result.
type Result struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Highlights []string `json:"highlights"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Exa API client. The underlying http.Client is reused
// across calls and released when the process exits; callers do not manage a
// session handle.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "exa: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "exa: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "exa: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "exa: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("exa: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "exa: unmarshal response")
	}

	return &result, nil
}

// ExtractContext flattens a search response into a single prompt-ready text
// block: one numbered section per result with its title and highlight
// bullets. An empty result set yields NoResultsContext.
func ExtractContext(resp *SearchResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return NoResultsContext
	}

	var sections []string
	for i, r := range resp.Results {
		var b strings.Builder
		title := r.Title
		if title == "" {
			title = "无标题"
		}
		fmt.Fprintf(&b, "【结果 %d】\n标题: %s\n", i+1, title)
		if len(r.Highlights) > 0 {
			b.WriteString("相关内容:\n")
			for _, h := range r.Highlights {
				fmt.Fprintf(&b, "  - %s\n", h)
			}
		} else {
			b.WriteString("相关内容: 无高亮内容\n")
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n")
}

// SearchAndExtract runs a search and returns the flattened context block.
func SearchAndExtract(ctx context.Context, c Client, query string, numResults int) (string, error) {
	resp, err := c.Search(ctx, SearchRequest{
		Query:         query,
		UseAutoprompt: true,
		NumResults:    numResults,
		Contents:      Contents{Highlights: true},
	})
	if err != nil {
		return "", err
	}
	return ExtractContext(resp), nil
}
