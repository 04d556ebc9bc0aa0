package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/answer"
	"github.com/quizlab/quizd/internal/store"
	"github.com/quizlab/quizd/pkg/exa"
	"github.com/quizlab/quizd/pkg/llm"
)

// engineEnv holds the initialized store, clients, and engine shared by the
// serve/answer/cache commands.
type engineEnv struct {
	Store  store.Store
	Engine *answer.Engine
}

// Close releases resources held by the environment.
func (env *engineEnv) Close() {
	if env.Store != nil {
		_ = env.Store.Close()
	}
}

// initStore opens and migrates the SQLite answer cache.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEngine wires the model client, optional search client, and cache store
// into an answering engine. Callers should defer env.Close().
func initEngine(ctx context.Context) (*engineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	llmOpts := []llm.Option{
		llm.WithModel(cfg.OpenAI.Model),
		llm.WithTimeout(time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second),
		llm.WithRateLimit(cfg.OpenAI.MaxRPS),
	}
	if cfg.OpenAI.BaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	llmClient := llm.NewClient(cfg.OpenAI.Key, llmOpts...)

	// Search escalation is optional: without a key, low-confidence answers
	// take the plain re-answer path.
	var searchClient exa.Client
	if cfg.SearchEnabled() {
		searchClient = exa.NewClient(cfg.Exa.Key,
			exa.WithBaseURL(cfg.Exa.BaseURL),
			exa.WithTimeout(time.Duration(cfg.Exa.TimeoutSecs)*time.Second),
		)
	}

	zap.L().Info("engine initialized",
		zap.String("model", cfg.OpenAI.Model),
		zap.String("base_url", cfg.OpenAI.BaseURL),
		zap.String("cache_path", cfg.Cache.Path),
		zap.Bool("search_enabled", searchClient != nil),
		zap.Float64("confidence_threshold", cfg.Answer.ConfidenceThreshold),
	)

	return &engineEnv{
		Store:  st,
		Engine: answer.New(cfg, llmClient, searchClient, st),
	}, nil
}
