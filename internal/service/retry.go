package service

import (
	"time"

	"leetscore/internal/models"
)

// RetryPolicy is a fixed linear retry schedule
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// WithRetry calls attempt up to MaxRetries+1 times, sleeping Delay between
// attempts. Only errors are retried; any returned result, including a
// not-found one, is final. Exhausted retries yield a degraded result.
func WithRetry(username string, attempt AttemptFunc, policy RetryPolicy, sleep func(time.Duration)) models.UserResult {
	var lastErr error
	for i := 0; i <= policy.MaxRetries; i++ {
		res, err := attempt(username)
		if err == nil {
			return res
		}
		lastErr = err
		if i < policy.MaxRetries {
			sleep(policy.Delay)
		}
	}

	msg := "Unknown error"
	if lastErr != nil {
		msg = lastErr.Error()
		if msg == "" {
			msg = "Failed after retries"
		}
	}
	return models.DegradedResult(username, msg)
}
