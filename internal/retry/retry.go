// Package retry provides the backoff and polling primitives every
// remote registry call goes through. The platform API drops
// connections, throttles, and settles slowly, so callers never invoke
// the client directly.
package retry

import (
	"context"
	"errors"
	"log"
	"math"
	"net"
	"strings"
	"syscall"
	"time"
)

// Policy configures exponential backoff for a fallible operation.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Classify reports whether an error is worth retrying. Nil means
	// Transient.
	Classify func(error) bool
}

// DefaultPolicy matches the platform's observed failure behavior:
// short bursts of throttling that clear within a minute.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

// statusCarrier is implemented by errors that carry an HTTP status.
type statusCarrier interface {
	HTTPStatus() int
}

// Transient classifies connection resets, timeouts, DNS failures,
// throttling signals, and HTTP 429/503 as retryable. Everything else
// fails immediately.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var status statusCarrier
	if errors.As(err, &status) {
		code := status.HTTPStatus()
		return code == 429 || code == 503
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, signal := range []string{
		"rate limit",
		"throttle",
		"throttled",
		"too many requests",
		"timeout",
		"connection reset",
	} {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}

// Do runs op, retrying retryable failures with exponential backoff.
// It returns op's value on success, or the last error once retries are
// exhausted. Non-retryable errors propagate on the first failure.
func Do[T any](ctx context.Context, desc string, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	classify := p.Classify
	if classify == nil {
		classify = Transient
	}

	var zero T
	var lastErr error

	for attempt := 0; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if !classify(err) {
			return zero, err
		}
		if attempt >= p.MaxRetries {
			return zero, lastErr
		}

		delay := delayFor(p, attempt)
		log.Printf("[retry] %s failed (attempt %d/%d), retrying in %s: %v",
			desc, attempt+1, p.MaxRetries+1, delay, err)

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// delayFor computes the wait before retrying after the given 0-indexed
// attempt: min(InitialDelay * Multiplier^attempt, MaxDelay). No jitter.
func delayFor(p Policy, attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && delay > max {
		delay = max
	}
	return time.Duration(delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
