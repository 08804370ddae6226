package retry

import (
	"context"
	"fmt"
	"log"
	"time"
)

// PollOptions bounds a PollUntil loop.
type PollOptions struct {
	Interval    time.Duration
	Timeout     time.Duration
	Description string
}

// TimeoutError is returned when a polled condition never holds within
// the window.
type TimeoutError struct {
	Description string
	Elapsed     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Elapsed.Round(time.Second), e.Description)
}

// PollUntil repeatedly evaluates cond until it reports done, then
// returns its value. An error from a single poll is treated as "not
// yet" so transient read failures do not abort the wait.
func PollUntil[T any](ctx context.Context, opts PollOptions, cond func(ctx context.Context) (T, bool, error)) (T, error) {
	var zero T
	start := time.Now()

	for {
		val, done, err := cond(ctx)
		if err != nil {
			log.Printf("[poll] %s: poll error ignored: %v", opts.Description, err)
		} else if done {
			return val, nil
		}

		// Fail before sleeping past the deadline so the reported
		// elapsed time never exceeds the timeout.
		elapsed := time.Since(start)
		if elapsed+opts.Interval > opts.Timeout {
			return zero, &TimeoutError{Description: opts.Description, Elapsed: elapsed}
		}

		if err := sleep(ctx, opts.Interval); err != nil {
			return zero, err
		}
	}
}
