package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/lock"
	"github.com/noah-isme/gema-lms-api/internal/observability"
)

const (
	tracerPrefix = "github.com/noah-isme/gema-lms-api/internal/service/"
	// maxWriteAttempts bounds retries after losing the assignment version guard.
	maxWriteAttempts = 3
)

// acquireLock takes a per-key lock and records how long the caller waited.
func acquireLock(ctx context.Context, locker lock.Locker, key string) (lock.Release, error) {
	if locker == nil {
		return func() {}, nil
	}

	start := time.Now()
	release, err := locker.Acquire(ctx, key)
	observability.LockWaitSeconds().Observe(time.Since(start).Seconds())
	return release, err
}

// feedbackSanitizer strips markup from instructor-written free text.
func feedbackSanitizer() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

func cleanText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(policy.Sanitize(strings.TrimSpace(value)))
}

func failSpan(span trace.Span, err error, status string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
