package http

import (
	"context"
	stdhttp "net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/account"
	"folio/app/internal/domain/ai"
	"folio/app/internal/domain/errs"
	"folio/app/internal/domain/portfolio"
)

const (
	errorFallbackMessage   = "We couldn't process your request right now."
	upstreamRetryAfterSecs = 60
)

// apiError maps a domain error onto a Huma status error. Unexpected failures are
// logged and reported to Sentry before being hidden behind a generic message.
func (s *Server) apiError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	var validation *errs.ValidationError
	if eris.As(err, &validation) {
		details := make([]error, 0, len(validation.Fields))
		for _, field := range validation.Fields {
			details = append(details, &huma.ErrorDetail{
				Message:  field.Message,
				Location: "body." + field.Field,
				Value:    field.Value,
			})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	var limited *ai.RateLimitError
	if eris.As(err, &limited) {
		retryAfter := int(limited.RetryAfter.Seconds())
		return huma.ErrorWithHeaders(
			huma.Error429TooManyRequests(limited.Error()),
			stdhttp.Header{"Retry-After": []string{strconv.Itoa(retryAfter)}},
		)
	}

	var generation *ai.GenerationError
	if eris.As(err, &generation) {
		s.logWarn(ctx, err, message, fields)
		switch generation.Kind {
		case ai.GenerationUpstreamRateLimited:
			return huma.ErrorWithHeaders(
				huma.Error429TooManyRequests("The AI provider is busy. Please retry shortly."),
				stdhttp.Header{"Retry-After": []string{strconv.Itoa(upstreamRetryAfterSecs)}},
			)
		case ai.GenerationUpstreamUnavailable:
			return huma.Error503ServiceUnavailable("The AI provider is unavailable. Please retry shortly.")
		case ai.GenerationUpstreamRejected:
			return huma.Error502BadGateway("The AI provider declined to answer this request.")
		default:
			return huma.Error502BadGateway("The AI provider returned no usable content.")
		}
	}

	switch {
	case eris.Is(err, errs.ErrUnauthorized):
		return huma.Error401Unauthorized("authentication required")
	case eris.Is(err, account.ErrInvalidCredentials):
		return huma.Error401Unauthorized(account.ErrInvalidCredentials.Error())
	case eris.Is(err, account.ErrAccountExists):
		return huma.Error409Conflict("an account with this email or username already exists")
	case eris.Is(err, portfolio.ErrSlugTaken):
		return huma.Error409Conflict("slug is already used by another of your portfolios")
	case eris.Is(err, portfolio.ErrSlugExhausted):
		return huma.Error409Conflict("no free slug could be derived from this title; choose one explicitly")
	case eris.Is(err, errs.ErrNotFound):
		return huma.Error404NotFound("not found")
	}

	s.recordError(ctx, err, message, fields)
	return huma.Error500InternalServerError(errorFallbackMessage)
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}

func (s *Server) logWarn(ctx context.Context, err error, message string, fields logrus.Fields) {
	if s.logger == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Warn(message)
}
