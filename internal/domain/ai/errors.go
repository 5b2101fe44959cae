package ai

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"folio/app/internal/domain/llm"
)

// RateLimitWindow is the trailing window usage is counted over, and the retry hint on rejection.
const RateLimitWindow = time.Hour

// RateLimitError reports that the caller exhausted their hourly quota.
type RateLimitError struct {
	Limit      int
	Used       int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("ai request limit of %d per hour reached, retry after %s", e.Limit, e.RetryAfter)
}

// GenerationKind says why a generation attempt produced no usable content.
type GenerationKind string

const (
	GenerationEmptyOutput         GenerationKind = "empty_output"
	GenerationUpstreamRateLimited GenerationKind = "upstream_rate_limited"
	GenerationUpstreamBadRequest  GenerationKind = "upstream_bad_request"
	GenerationUpstreamUnavailable GenerationKind = "upstream_unavailable"
	GenerationUpstreamRejected    GenerationKind = "upstream_rejected"
)

// Retryable reports whether the caller may retry the same request later.
func (k GenerationKind) Retryable() bool {
	return k == GenerationUpstreamRateLimited || k == GenerationUpstreamUnavailable
}

// GenerationError wraps a failed or unusable generation.
type GenerationError struct {
	Kind GenerationKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to produce usable content (%s)", e.Kind)
	}
	return fmt.Sprintf("failed to produce usable content (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) bool {
	var target *RateLimitError
	return eris.As(err, &target)
}

// IsGeneration reports whether err carries a GenerationError.
func IsGeneration(err error) bool {
	var target *GenerationError
	return eris.As(err, &target)
}

func emptyOutput() *GenerationError {
	return &GenerationError{Kind: GenerationEmptyOutput}
}

func fromUpstream(err error) *GenerationError {
	var kind GenerationKind
	switch llm.KindOf(err) {
	case llm.UpstreamRateLimited:
		kind = GenerationUpstreamRateLimited
	case llm.UpstreamBadRequest:
		kind = GenerationUpstreamBadRequest
	case llm.UpstreamRejected:
		kind = GenerationUpstreamRejected
	case llm.UpstreamUnavailable:
		kind = GenerationUpstreamUnavailable
	default:
		kind = GenerationUpstreamUnavailable
	}
	return &GenerationError{Kind: kind, Err: err}
}
