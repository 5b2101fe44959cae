package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/errs"
)

const publicCacheControl = "public, max-age=60"

type publicPageInput struct {
	Username string `path:"username"`
	Slug     string `path:"slug"`
}

func (s *Server) registerPublicPageRoute() {
	huma.Get(s.api, "/p/{username}/{slug}", s.publicPageHandler, htmlOperation(
		"Public portfolio page",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) publicPageHandler(ctx context.Context, input *publicPageInput) (*htmlResponse, error) {
	fields := logrus.Fields{"username": input.Username, "slug": input.Slug}

	p, err := s.portfolios.PublicPage(ctx, input.Username, input.Slug)
	if err != nil {
		if eris.Is(err, errs.ErrNotFound) {
			return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, "This portfolio does not exist or has not been published.")
		}
		s.recordError(ctx, err, "loading public portfolio", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}

	body, err := renderComponent(ctx, portfolioPage(s.pages.build(p)))
	if err != nil {
		s.recordError(ctx, err, "rendering public portfolio", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render this portfolio right now.")
	}

	response := newHTMLResponse(stdhttp.StatusOK, body)
	response.CacheControl = publicCacheControl
	return response, nil
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))

	body, err := renderComponent(ctx, errorPage(label, message))
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := []byte(fmt.Sprintf("<html><body><h1>%s</h1></body></html>", label))
		return newHTMLResponse(status, fallback), nil
	}

	return newHTMLResponse(status, body), nil
}
