package resilience

import (
	"context"
	"math"
	"time"
)

// Strategy computes the delay to wait after a failed attempt. Attempts are
// numbered from zero.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// FixedDelay waits the same duration after every failed attempt. It is the
// policy for answer-format (validation) retries.
type FixedDelay time.Duration

func (d FixedDelay) Delay(int) time.Duration { return time.Duration(d) }

// Exponential multiplies Initial by Multiplier^attempt, capped at Max. It is
// the policy for call-failure retries. A zero Max means no cap.
type Exponential struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

func (e Exponential) Delay(attempt int) time.Duration {
	mult := e.Multiplier
	if mult <= 0 {
		mult = 2.0
	}
	d := float64(e.Initial) * math.Pow(mult, float64(attempt))
	if e.Max > 0 && d > float64(e.Max) {
		d = float64(e.Max)
	}
	return time.Duration(d)
}

// Sleep waits for d or until ctx is done, whichever comes first. It returns
// the context error when interrupted so retry loops stop promptly on
// cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
