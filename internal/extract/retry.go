package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/pontikos-lab/open-sight/internal/logger"
)

// Retry policy defaults.
const (
	// DefaultMaxRetries is the number of retries after the initial attempt,
	// so a permanently failing file is attempted DefaultMaxRetries+1 times.
	DefaultMaxRetries = 10

	// DefaultBaseDelay is multiplied by the attempt index to produce a
	// linearly increasing backoff between attempts.
	DefaultBaseDelay = 500 * time.Millisecond
)

// RetryExtractor wraps another Extractor with bounded retries and linearly
// increasing backoff for transient failures. Only the native DICOM variant
// is wrapped; the crystal-eye variant is excluded by design because each of
// its calls spawns an external process with a much higher per-call cost.
//
// Exhausting the retry budget yields the last failure with RetriesExhausted
// set; the caller logs it and drops the file from the current run.
type RetryExtractor struct {
	inner      Extractor
	maxRetries int
	baseDelay  time.Duration
	log        logger.Logger

	// sleep is replaceable in tests
	sleep func(time.Duration)
}

// NewRetryExtractor wraps inner with the default retry policy.
// The logger can be nil to disable retry logging.
func NewRetryExtractor(inner Extractor, log logger.Logger) *RetryExtractor {
	return NewRetryExtractorWithDelay(inner, log, DefaultBaseDelay)
}

// NewRetryExtractorWithDelay wraps inner with the default retry budget and a
// caller-chosen base delay. A zero delay disables the backoff entirely, which
// lets scheduler-level tests exercise the real policy without waiting.
func NewRetryExtractorWithDelay(inner Extractor, log logger.Logger, baseDelay time.Duration) *RetryExtractor {
	return &RetryExtractor{
		inner:      inner,
		maxRetries: DefaultMaxRetries,
		baseDelay:  baseDelay,
		log:        log,
		sleep:      time.Sleep,
	}
}

// Extract attempts the wrapped extraction up to maxRetries+1 times, sleeping
// attempt x baseDelay between attempts. Non-failure outcomes are returned
// immediately.
func (r *RetryExtractor) Extract(ctx context.Context, path string) Outcome {
	for attempt := 0; ; attempt++ {
		outcome := r.inner.Extract(ctx, path)
		if outcome.Status != StatusFailed {
			return outcome
		}

		if attempt >= r.maxRetries {
			outcome.RetriesExhausted = true
			return outcome
		}

		if r.log != nil {
			r.log.LogWarn(fmt.Sprintf("error processing %s: %v - retrying", path, outcome.Err))
		}
		r.sleep(time.Duration(attempt+1) * r.baseDelay)
	}
}
