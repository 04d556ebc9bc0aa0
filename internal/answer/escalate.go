package answer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/model"
	"github.com/quizlab/quizd/pkg/exa"
)

// Decision is the terminal routing outcome for a scored first answer.
type Decision int

const (
	// DecisionAccept returns the first answer unchanged.
	DecisionAccept Decision = iota
	// DecisionSearch re-answers with web search context.
	DecisionSearch
	// DecisionRetry re-answers without search context.
	DecisionRetry
)

func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionSearch:
		return "search"
	default:
		return "retry"
	}
}

// Decide routes a scored answer. Scores at or above the threshold are
// accepted as-is; below it, the search path is taken when a search
// credential is configured, otherwise the plain re-answer path. All three
// outcomes are terminal: the second answer is never re-scored.
func Decide(score, threshold float64, searchConfigured bool) Decision {
	if score >= threshold {
		return DecisionAccept
	}
	if searchConfigured {
		return DecisionSearch
	}
	return DecisionRetry
}

// answerWithSearch runs the search-augmented re-answer. Any search failure
// abandons the escalation and hands back the original first-pass outcome;
// search trouble must never cost the caller their answer.
func (e *Engine) answerWithSearch(ctx context.Context, q model.Question, first CallOutcome, score float64) CallOutcome {
	log := zap.L().With(zap.String("stage", "search_escalation"))

	query := BuildSearchQuery(q)
	searchStart := time.Now()
	searchCtx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()

	searchContext, err := exa.SearchAndExtract(searchCtx, e.search, query, e.numResults)
	if err != nil {
		log.Warn("search failed, keeping first answer",
			zap.Duration("elapsed", time.Since(searchStart)),
			zap.Error(err),
		)
		return first
	}

	log.Info("search complete",
		zap.Int("context_chars", len(searchContext)),
		zap.Duration("elapsed", time.Since(searchStart)),
	)

	prompt := BuildSearchEscalationPrompt(q, first.Text, score, e.threshold, searchContext)
	return e.reAnswer(ctx, first, systemSearcher, prompt, q.Kind, "search_escalation")
}

// answerWithRetry runs the plain re-answer: same composition minus the
// search context.
func (e *Engine) answerWithRetry(ctx context.Context, q model.Question, first CallOutcome, score float64) CallOutcome {
	prompt := BuildRetryEscalationPrompt(q, first.Text, score, e.threshold)
	return e.reAnswer(ctx, first, systemReconsider, prompt, q.Kind, "retry_escalation")
}

// reAnswer issues the single escalation call and folds its attempts into the
// first outcome's history. An exhausted re-answer leaves the first answer
// standing.
func (e *Engine) reAnswer(ctx context.Context, first CallOutcome, system, prompt string, kind model.Kind, label string) CallOutcome {
	out := e.caller.Call(ctx, system, prompt, kind, label)
	attempts := append(first.Attempts, out.Attempts...)
	if out.State == CallExhausted {
		out = first
	}
	out.Attempts = attempts
	return out
}
