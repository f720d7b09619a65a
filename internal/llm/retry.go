package llm

import (
	"context"
	"log/slog"
	"time"
)

// Sleeper is the blocking wait between attempts, injectable so the policy is
// testable with a fake clock.
type Sleeper func(time.Duration)

// RetryPolicy wraps an Extractor call with bounded retry-with-sleep.
//
// MaxRetries counts additional attempts after the first failure: MaxRetries=2
// means up to 3 attempts total. Backoff is linear: Sleep times the attempt
// number.
type RetryPolicy struct {
	MaxRetries int
	Sleep      time.Duration
	SleepFn    Sleeper
	Logger     *slog.Logger
}

// Extract runs ex.Extract, retrying transient extraction errors until the
// budget is exhausted, then returns *ExtractionFailed carrying the last
// error. Non-retryable errors (context cancellation and the like) return
// immediately.
func (p RetryPolicy) Extract(ctx context.Context, ex Extractor, req ExtractRequest) ([]Record, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.SleepFn
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	attempts := p.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		records, err := ex.Extract(ctx, req)
		if err == nil {
			return records, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		if attempt < attempts {
			wait := p.Sleep * time.Duration(attempt)
			logger.Warn("llm.extract.retry",
				"schema", req.Schema.Name,
				"attempt", attempt,
				"max_attempts", attempts,
				"sleep", wait.String(),
				"error", err,
			)
			sleep(wait)
		}
	}
	return nil, &ExtractionFailed{Schema: req.Schema.Name, Attempts: attempts, LastErr: lastErr}
}
