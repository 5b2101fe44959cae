package llm

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// UpstreamKind classifies failures reported by a TextGenerator.
type UpstreamKind string

const (
	// UpstreamRateLimited means the provider throttled us (HTTP 429). Retryable after a delay.
	UpstreamRateLimited UpstreamKind = "rate_limited"
	// UpstreamBadRequest means the provider rejected the request shape (HTTP 400/422). Not retryable.
	UpstreamBadRequest UpstreamKind = "bad_request"
	// UpstreamUnavailable covers 5xx responses, network failures and timeouts. Retryable.
	UpstreamUnavailable UpstreamKind = "unavailable"
	// UpstreamRejected means the model refused or a content filter blocked the output.
	UpstreamRejected UpstreamKind = "rejected"
)

// UpstreamError wraps a provider failure with its classification.
type UpstreamError struct {
	Kind       UpstreamKind
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// KindOf extracts the upstream classification from err. Unclassified errors count as unavailable.
func KindOf(err error) UpstreamKind {
	var upstream *UpstreamError
	if eris.As(err, &upstream) {
		return upstream.Kind
	}
	return UpstreamUnavailable
}
