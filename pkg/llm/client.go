package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/quizlab/quizd/internal/resilience"
)

const defaultTimeout = 60 * time.Second

// Client performs a single two-message chat exchange against an
// OpenAI-compatible completion API and returns the assistant text.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// ChatRequest describes one exchange: a system persona and a user prompt.
type ChatRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Option configures the client.
type Option func(*openaiClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *openaiClient) {
		c.baseURL = url
	}
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(c *openaiClient) {
		c.model = model
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *openaiClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outgoing calls at rps requests per second. Zero or
// negative disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *openaiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type openaiClient struct {
	api     *openai.Client
	model   string
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClient creates a chat client backed by the go-openai SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &openaiClient{
		model:   openai.GPT3Dot5Turbo,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}

	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Chat sends the system and user messages and returns the trimmed assistant
// text. Throttling, server errors, and network timeouts come back wrapped as
// transient so callers can apply backoff.
func (c *openaiClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "llm: rate limit wait")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", eris.New("llm: completion has no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps SDK errors onto the retry taxonomy: anything with a
// retryable HTTP status or a timeout flavor becomes a TransientError.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.HTTPStatusCode) {
		return resilience.NewTransientError(eris.Wrap(err, "llm: chat completion"), apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && resilience.IsTransientHTTPStatus(reqErr.HTTPStatusCode) {
		return resilience.NewTransientError(eris.Wrap(err, "llm: chat completion"), reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) || resilience.IsTransient(err) {
		return resilience.NewTransientError(eris.Wrap(err, "llm: chat completion"), 0)
	}

	return eris.Wrap(err, "llm: chat completion")
}
