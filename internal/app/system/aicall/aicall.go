// Package aicall wraps structured-output model calls with the single-retry
// policy shared by every AI flow (matching, persona generation).
//
// Policy:
//   - An error whose message contains "429" or "503" is transient. The call
//     waits a fixed delay and is retried exactly once.
//   - Any other failure, or a failed retry, is returned as *UnavailableError.
//     Callers decide how to present it; nothing is swallowed here.
package aicall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultRetryDelay is the fixed wait before the single retry.
const DefaultRetryDelay = 2 * time.Second

// ErrUnavailable matches every *UnavailableError via errors.Is.
var ErrUnavailable = errors.New("ai model unavailable")

// Model is a structured-output language model.
// GenerateJSON returns the decoded JSON object the model produced.
type Model interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
}

// Prompt is one structured request.
type Prompt struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// UnavailableError reports that a model call failed after the retry policy ran.
type UnavailableError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: ai model unavailable after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnavailable) succeed.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// IsRetryable reports whether err looks like a rate-limit or
// service-unavailable failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "503")
}

// Caller runs prompts against a Model with the retry policy.
type Caller struct {
	model      Model
	retryDelay time.Duration
	log        *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewCaller builds a Caller. A non-positive retryDelay selects DefaultRetryDelay.
func NewCaller(model Model, retryDelay time.Duration, logger *zap.Logger) *Caller {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{
		model:      model,
		retryDelay: retryDelay,
		log:        logger,
		sleep:      sleepCtx,
	}
}

// RetryDelay returns the configured wait before the retry.
func (c *Caller) RetryDelay() time.Duration { return c.retryDelay }

// Call sends p to the model. op names the flow in logs and errors.
func (c *Caller) Call(ctx context.Context, op string, p Prompt) (map[string]any, error) {
	out, err := c.model.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err == nil {
		return out, nil
	}
	if !IsRetryable(err) {
		c.log.Warn("ai call failed (not retryable)", zap.String("op", op), zap.Error(err))
		return nil, &UnavailableError{Op: op, Attempts: 1, Err: err}
	}

	c.log.Info("ai call transient failure; retrying once",
		zap.String("op", op),
		zap.Duration("delay", c.retryDelay),
		zap.Error(err))

	if serr := c.sleep(ctx, c.retryDelay); serr != nil {
		return nil, &UnavailableError{Op: op, Attempts: 1, Err: serr}
	}

	out, err = c.model.GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		c.log.Warn("ai call retry failed", zap.String("op", op), zap.Error(err))
		return nil, &UnavailableError{Op: op, Attempts: 2, Err: err}
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
