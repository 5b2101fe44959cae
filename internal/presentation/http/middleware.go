package http

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/account"
)

const rateLimitMessage = "Too many requests. Please wait a moment and try again."

func (s *Server) requestIDMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		reqID := strings.TrimSpace(ctx.Header("X-Request-ID"))
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}

		goCtx := context.WithValue(ctx.Context(), requestIDContextKey, reqID)
		ctx = huma.WithContext(ctx, goCtx)
		ctx.SetHeader("X-Request-ID", reqID)

		if hub := sentry.GetHubFromContext(goCtx); hub != nil {
			hub.Scope().SetTag("request_id", reqID)
		}

		next(ctx)
	}
}

func (s *Server) rateLimitMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		req, _ := humago.Unwrap(ctx)
		if req == nil {
			next(ctx)
			return
		}

		ip := clientIPFromRequest(req)
		allowed, wait := s.rateLimiter.Allow(ip)
		if allowed {
			next(ctx)
			return
		}

		if s.logger != nil {
			fields := logrus.Fields{
				"ip":   ip,
				"path": req.URL.Path,
			}
			if requestID := RequestIDFromContext(ctx.Context()); requestID != "" {
				fields["request_id"] = requestID
			}
			s.logger.WithFields(fields).Warn("request rate limited")
		}

		ctx.SetHeader("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		if err := huma.WriteErr(s.api, ctx, stdhttp.StatusTooManyRequests, rateLimitMessage); err != nil {
			s.recordError(ctx.Context(), err, "writing rate limit response", logrus.Fields{"ip": ip})
		}
	}
}

// authMiddleware attaches the caller identity when a valid bearer token is present.
// Anonymous requests reach public operations only.
func (s *Server) authMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token, ok := bearerToken(ctx.Header("Authorization"))
		if !ok {
			s.continueAnonymous(ctx, next)
			return
		}

		identity, err := s.accounts.Authenticate(token)
		if err != nil {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{
					"request_id": RequestIDFromContext(ctx.Context()),
					"error":      err.Error(),
				}).Debug("ignoring invalid bearer token")
			}
			s.continueAnonymous(ctx, next)
			return
		}

		goCtx := account.WithIdentity(ctx.Context(), identity)
		if hub := sentry.GetHubFromContext(goCtx); hub != nil {
			hub.Scope().SetUser(sentry.User{
				ID:       strconv.FormatUint(uint64(identity.UserID), 10),
				Username: identity.Username,
			})
		}

		next(huma.WithContext(ctx, goCtx))
	}
}

// continueAnonymous rejects operations that declare bearer security before their input is parsed.
func (s *Server) continueAnonymous(ctx huma.Context, next func(huma.Context)) {
	if op := ctx.Operation(); op != nil && len(op.Security) > 0 {
		ctx.SetHeader("WWW-Authenticate", `Bearer realm="folio"`)
		if err := huma.WriteErr(s.api, ctx, stdhttp.StatusUnauthorized, "authentication required"); err != nil {
			s.recordError(ctx.Context(), err, "writing unauthorized response", nil)
		}
		return
	}
	next(ctx)
}

func (s *Server) loggingMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.logger == nil {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		status := ctx.Status()
		if status == 0 {
			status = stdhttp.StatusOK
		}

		fields := logrus.Fields{
			"method":      ctx.Method(),
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
		}

		if op := ctx.Operation(); op != nil {
			fields["route"] = op.Path
		}

		if req, _ := humago.Unwrap(ctx); req != nil {
			fields["path"] = req.URL.Path
			fields["remote_addr"] = req.RemoteAddr
		}

		if requestID := RequestIDFromContext(ctx.Context()); requestID != "" {
			fields["request_id"] = requestID
		}

		if identity, ok := account.IdentityFromContext(ctx.Context()); ok {
			fields["user_id"] = identity.UserID
		}

		entry := s.logger.WithFields(fields)
		if status >= 500 {
			entry.Error("request failed")
		} else {
			entry.Info("request completed")
		}
	}
}

func (s *Server) recoveryMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			if rec := recover(); rec != nil {
				var err error
				switch v := rec.(type) {
				case error:
					err = v
				default:
					err = fmt.Errorf("panic: %v", v)
				}

				s.recordError(ctx.Context(), err, "panic recovered", nil)

				if hub := sentry.GetHubFromContext(ctx.Context()); hub != nil {
					hub.RecoverWithContext(ctx.Context(), rec)
					hub.Flush(2 * time.Second)
				}

				_ = huma.WriteErr(s.api, ctx, stdhttp.StatusInternalServerError, "internal server error")
			}
		}()

		next(ctx)
	}
}

func (s *Server) sentryMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.sentry == nil {
			next(ctx)
			return
		}

		hub := s.sentry.Clone()
		scope := hub.Scope()
		scope.SetTag("http.method", ctx.Method())
		if op := ctx.Operation(); op != nil {
			scope.SetTag("http.route", op.Path)
		}

		goCtx := sentry.SetHubOnContext(ctx.Context(), hub)
		ctx = huma.WithContext(ctx, goCtx)

		defer hub.Flush(2 * time.Second)

		next(ctx)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func clientIPFromRequest(req *stdhttp.Request) string {
	if req == nil {
		return ""
	}

	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if candidate := strings.TrimSpace(first); candidate != "" {
			return candidate
		}
	}

	if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
