package answer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/quizlab/quizd/internal/resilience"
	"github.com/quizlab/quizd/pkg/exa"
	"github.com/quizlab/quizd/pkg/llm"
)

// --- LLM fake ---

// llmStep is one scripted model response.
type llmStep struct {
	text string
	err  error
}

// scriptedLLM replays a fixed sequence of responses and records every
// request, which keeps sequence-sensitive retry tests readable.
type scriptedLLM struct {
	mu    sync.Mutex
	steps []llmStep
	calls []llm.ChatRequest
}

func newScriptedLLM(steps ...llmStep) *scriptedLLM {
	return &scriptedLLM{steps: steps}
}

func reply(text string) llmStep { return llmStep{text: text} }

func failCall(msg string) llmStep {
	return llmStep{err: resilience.NewTransientError(errors.New(msg), 503)}
}

func (s *scriptedLLM) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.steps) == 0 {
		return "", errors.New("scripted llm: no responses left")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.text, step.err
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scriptedLLM) lastCall() llm.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

// --- Exa mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, req exa.SearchRequest) (*exa.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exa.SearchResponse), args.Error(1)
}

// --- fast configs ---

func fastCallerConfig() CallerConfig {
	return CallerConfig{
		MaxAttempts:     3,
		ValidationDelay: resilience.FixedDelay(time.Millisecond),
		CallBackoff:     resilience.Exponential{Initial: time.Millisecond, Multiplier: 2},
	}
}

func fastEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MaxAttempts: 3,
		Delay:       resilience.FixedDelay(time.Millisecond),
	}
}

// fastEngine builds an Engine with millisecond retry delays for tests.
func fastEngine(client llm.Client, search exa.Client, threshold float64) *Engine {
	return &Engine{
		caller:        NewCaller(client, fastCallerConfig()),
		estimator:     NewEstimator(client, fastEstimatorConfig()),
		search:        search,
		threshold:     threshold,
		numResults:    3,
		searchTimeout: time.Second,
	}
}
