package answer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quizlab/quizd/internal/model"
	"github.com/quizlab/quizd/internal/resilience"
	"github.com/quizlab/quizd/pkg/llm"
)

const (
	defaultMaxAttempts = 3
	answerTemperature  = 0.3
	answerMaxTokens    = 500
)

// CallState tags the outcome of a validation-gated model call.
type CallState int

const (
	// CallValid means the answer passed format validation.
	CallValid CallState = iota
	// CallDegraded means all attempts produced text but none validated; the
	// last obtained answer is returned anyway.
	CallDegraded
	// CallExhausted means no attempt ever produced any text.
	CallExhausted
)

func (s CallState) String() string {
	switch s {
	case CallValid:
		return "valid"
	case CallDegraded:
		return "degraded"
	default:
		return "exhausted"
	}
}

// CallOutcome is the tagged result of a Caller.Call. Retry exhaustion is a
// state, not an error: format violations must not abort the user-facing
// answer.
type CallOutcome struct {
	Text     string
	State    CallState
	Attempts []model.Attempt
}

// Valid reports whether the outcome passed format validation.
func (o CallOutcome) Valid() bool { return o.State == CallValid }

// CallerConfig tunes the retry loop. Validation failures and call failures
// deliberately use two distinct, separately named delay policies.
type CallerConfig struct {
	MaxAttempts     int
	ValidationDelay resilience.Strategy
	CallBackoff     resilience.Strategy
}

// DefaultCallerConfig mirrors the production policy: three attempts, a flat
// second after a malformed answer, doubling backoff after a failed call.
func DefaultCallerConfig() CallerConfig {
	return CallerConfig{
		MaxAttempts:     defaultMaxAttempts,
		ValidationDelay: resilience.FixedDelay(time.Second),
		CallBackoff:     resilience.Exponential{Initial: time.Second, Multiplier: 2},
	}
}

// Caller wraps a single model call with bounded retries and validation-gated
// acceptance.
type Caller struct {
	llm llm.Client
	cfg CallerConfig
}

// NewCaller creates a Caller. Zero-value config fields fall back to the
// defaults.
func NewCaller(client llm.Client, cfg CallerConfig) *Caller {
	def := DefaultCallerConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.ValidationDelay == nil {
		cfg.ValidationDelay = def.ValidationDelay
	}
	if cfg.CallBackoff == nil {
		cfg.CallBackoff = def.CallBackoff
	}
	return &Caller{llm: client, cfg: cfg}
}

// Call sends the prompt and accepts the first answer that validates against
// kind. Invalid answers retry after a fixed delay, failed calls retry with
// exponential backoff. When every attempt misses, the last obtained text is
// returned tagged Degraded; only a run with no text at all is Exhausted.
// The label identifies the pipeline stage in logs.
func (c *Caller) Call(ctx context.Context, system, prompt string, kind model.Kind, label string) CallOutcome {
	log := zap.L().With(zap.String("stage", label))

	outcome := CallOutcome{State: CallExhausted}
	start := time.Now()

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		attemptStart := time.Now()
		text, err := c.llm.Chat(ctx, llm.ChatRequest{
			System:      system,
			User:        prompt,
			Temperature: answerTemperature,
			MaxTokens:   answerMaxTokens,
		})
		elapsed := time.Since(attemptStart)

		if err != nil {
			outcome.Attempts = append(outcome.Attempts, model.Attempt{
				Stage:   label,
				Prompt:  prompt,
				Elapsed: elapsed,
				Err:     err.Error(),
			})
			log.Warn("model call failed",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.cfg.MaxAttempts),
				zap.Error(err),
			)
			if attempt < c.cfg.MaxAttempts-1 {
				if sleepErr := resilience.Sleep(ctx, c.cfg.CallBackoff.Delay(attempt)); sleepErr != nil {
					return outcome
				}
			}
			continue
		}

		valid := Validate(text, kind)
		outcome.Text = text
		outcome.Attempts = append(outcome.Attempts, model.Attempt{
			Stage:    label,
			Prompt:   prompt,
			Response: text,
			Valid:    valid,
			Elapsed:  elapsed,
		})

		if valid {
			outcome.State = CallValid
			if attempt > 0 {
				log.Info("answer accepted after retry",
					zap.Int("attempt", attempt+1),
					zap.String("answer", text),
				)
			}
			return outcome
		}

		outcome.State = CallDegraded
		log.Warn("answer failed format validation",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.cfg.MaxAttempts),
			zap.String("answer", text),
		)
		if attempt < c.cfg.MaxAttempts-1 {
			if sleepErr := resilience.Sleep(ctx, c.cfg.ValidationDelay.Delay(attempt)); sleepErr != nil {
				return outcome
			}
		}
	}

	log.Warn("all attempts exhausted, returning last answer",
		zap.String("state", outcome.State.String()),
		zap.String("answer", outcome.Text),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcome
}
