package answer

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/model"
	"github.com/quizlab/quizd/internal/resilience"
	"github.com/quizlab/quizd/pkg/llm"
)

const (
	confidenceMaxTokens = 10

	// FallbackConfidence is the neutral score used when every estimation
	// attempt fails. Confidence is an enhancement, never a hard failure.
	FallbackConfidence = 0.5
)

// EstimatorConfig tunes the confidence retry loop, which runs independently
// of the answering retries.
type EstimatorConfig struct {
	MaxAttempts int
	Delay       resilience.Strategy
}

// DefaultEstimatorConfig mirrors the production policy: three attempts with
// a flat second between them.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MaxAttempts: defaultMaxAttempts,
		Delay:       resilience.FixedDelay(time.Second),
	}
}

// Estimator asks the model to self-score an answer it already gave.
type Estimator struct {
	llm llm.Client
	cfg EstimatorConfig
}

// NewEstimator creates an Estimator. Zero-value config fields fall back to
// the defaults.
func NewEstimator(client llm.Client, cfg EstimatorConfig) *Estimator {
	def := DefaultEstimatorConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Delay == nil {
		cfg.Delay = def.Delay
	}
	return &Estimator{llm: client, cfg: cfg}
}

// Estimate returns the model's self-reported probability that answer is
// correct, clamped to [0,1]. A failed call or non-numeric reply retries; on
// exhaustion the neutral fallback 0.5 is returned. Estimate never fails.
func (e *Estimator) Estimate(ctx context.Context, q model.Question, answer string) (float64, []model.Attempt) {
	log := zap.L().With(zap.String("stage", "confidence"))
	prompt := BuildConfidencePrompt(q, answer)

	var attempts []model.Attempt
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		attemptStart := time.Now()
		text, err := e.llm.Chat(ctx, llm.ChatRequest{
			System:      systemEvaluator,
			User:        prompt,
			Temperature: answerTemperature,
			MaxTokens:   confidenceMaxTokens,
		})
		elapsed := time.Since(attemptStart)

		if err == nil {
			score, parseErr := strconv.ParseFloat(strings.TrimSpace(text), 64)
			// NaN passes both clamp comparisons and Inf is not a usable
			// score either; treat non-finite replies as non-numeric.
			if parseErr == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
				parseErr = errors.New("confidence is not finite")
			}
			if parseErr == nil {
				score = clamp(score)
				attempts = append(attempts, model.Attempt{
					Stage:    "confidence",
					Prompt:   prompt,
					Response: text,
					Valid:    true,
					Elapsed:  elapsed,
				})
				if attempt > 0 {
					log.Info("confidence parsed after retry",
						zap.Int("attempt", attempt+1),
						zap.Float64("confidence", score),
					)
				}
				return score, attempts
			}
			attempts = append(attempts, model.Attempt{
				Stage:    "confidence",
				Prompt:   prompt,
				Response: text,
				Elapsed:  elapsed,
				Err:      parseErr.Error(),
			})
			log.Warn("confidence reply not numeric",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", e.cfg.MaxAttempts),
				zap.String("reply", text),
			)
		} else {
			attempts = append(attempts, model.Attempt{
				Stage:   "confidence",
				Prompt:  prompt,
				Elapsed: elapsed,
				Err:     err.Error(),
			})
			log.Warn("confidence call failed",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", e.cfg.MaxAttempts),
				zap.Error(err),
			)
		}

		if attempt < e.cfg.MaxAttempts-1 {
			if sleepErr := resilience.Sleep(ctx, e.cfg.Delay.Delay(attempt)); sleepErr != nil {
				break
			}
		}
	}

	log.Warn("confidence estimation exhausted, using fallback",
		zap.Float64("fallback", FallbackConfidence),
	)
	return FallbackConfidence, attempts
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
