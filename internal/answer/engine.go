package answer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/config"
	"github.com/quizlab/quizd/internal/model"
	"github.com/quizlab/quizd/internal/store"
	"github.com/quizlab/quizd/pkg/exa"
	"github.com/quizlab/quizd/pkg/llm"
)

// ErrNoAnswer is returned when the initial answering stage never produced any
// text across all attempts. This is the only fatal pipeline condition; every
// later stage degrades toward the best answer obtained so far.
var ErrNoAnswer = eris.New("answer: model produced no answer")

// ErrEmptyTitle is returned for questions with an empty title.
var ErrEmptyTitle = eris.New("answer: question title is empty")

// Result is the final outcome of the answering pipeline for one question.
type Result struct {
	Answer     string          `json:"answer"`
	Valid      bool            `json:"valid"`
	Confidence float64         `json:"confidence"`
	Decision   Decision        `json:"-"`
	FromCache  bool            `json:"from_cache"`
	Attempts   []model.Attempt `json:"attempts,omitempty"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// Engine runs the confidence-gated answering pipeline: initial answer,
// format validation with retries, confidence scoring, threshold decision,
// and an optional search-augmented or plain re-answer.
type Engine struct {
	caller        *Caller
	estimator     *Estimator
	search        exa.Client // nil disables search escalation
	store         store.Store
	threshold     float64
	numResults    int
	searchTimeout time.Duration
}

// New builds an Engine from configuration and collaborators. searchClient
// and st may be nil to disable search escalation and caching respectively.
func New(cfg *config.Config, llmClient llm.Client, searchClient exa.Client, st store.Store) *Engine {
	return &Engine{
		caller:        NewCaller(llmClient, CallerConfig{MaxAttempts: cfg.Answer.MaxAttempts}),
		estimator:     NewEstimator(llmClient, EstimatorConfig{}),
		search:        searchClient,
		store:         st,
		threshold:     cfg.Answer.ConfidenceThreshold,
		numResults:    cfg.Exa.NumResults,
		searchTimeout: time.Duration(cfg.Exa.TimeoutSecs) * time.Second,
	}
}

// Answer runs the pipeline for one question. skipCache bypasses the cache
// lookup for this request only; the validated result is still written back.
func (e *Engine) Answer(ctx context.Context, q model.Question, skipCache bool) (*Result, error) {
	if strings.TrimSpace(q.Title) == "" {
		return nil, ErrEmptyTitle
	}

	start := time.Now()
	log := zap.L().With(
		zap.String("request_id", uuid.NewString()),
		zap.String("kind", string(q.Kind)),
	)
	log.Info("answering question", zap.String("title", truncate(q.Title, 100)))

	key := store.CacheKey(q.Title, q.Options)
	if e.store != nil && !skipCache {
		entry, err := e.store.GetAnswer(ctx, key)
		if err != nil {
			log.Warn("cache lookup failed", zap.Error(err))
		} else if entry != nil {
			log.Info("cache hit", zap.String("answer", entry.Answer))
			return &Result{
				Answer:    entry.Answer,
				Valid:     true,
				FromCache: true,
				Elapsed:   time.Since(start),
			}, nil
		}
	}

	// Initial answer with validation-gated retries.
	first := e.caller.Call(ctx, systemAnswerer, BuildPrompt(q), q.Kind, "initial")
	if first.State == CallExhausted {
		return nil, eris.Wrap(ErrNoAnswer, "answer: initial stage exhausted")
	}
	log.Info("first answer obtained",
		zap.String("answer", first.Text),
		zap.String("state", first.State.String()),
	)

	// Confidence self-assessment; never fails.
	score, confAttempts := e.estimator.Estimate(ctx, q, first.Text)
	first.Attempts = append(first.Attempts, confAttempts...)
	log.Info("confidence scored",
		zap.Float64("confidence", score),
		zap.Float64("threshold", e.threshold),
	)

	decision := Decide(score, e.threshold, e.search != nil)
	final := first
	switch decision {
	case DecisionAccept:
		// Confidence suffices; first answer stands.
	case DecisionSearch:
		final = e.answerWithSearch(ctx, q, first, score)
	case DecisionRetry:
		final = e.answerWithRetry(ctx, q, first, score)
	}

	result := &Result{
		Answer:     final.Text,
		Valid:      final.Valid(),
		Confidence: score,
		Decision:   decision,
		Attempts:   final.Attempts,
		Elapsed:    time.Since(start),
	}

	// Only validated answers enter the cache.
	if e.store != nil && result.Valid {
		entry := model.CacheEntry{
			Key:     key,
			Title:   q.Title,
			Options: q.Options,
			Kind:    q.Kind,
			Answer:  result.Answer,
		}
		if err := e.store.PutAnswer(ctx, entry); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}

	log.Info("question answered",
		zap.String("answer", result.Answer),
		zap.Bool("valid", result.Valid),
		zap.String("decision", decision.String()),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
