package http

import (
	"embed"
	"io/fs"
	stdhttp "net/http"

	"github.com/rotisserie/eris"
)

//go:embed static/*
var staticFiles embed.FS

const stylesheetPath = "/static/portfolio.css"

func newStaticAssetHandler() (stdhttp.Handler, error) {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, eris.Wrap(err, "preparing static assets filesystem")
	}

	return stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.FS(assets))), nil
}

func (s *Server) registerStaticRoute() {
	handler, err := newStaticAssetHandler()
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("registering static assets handler failed")
		}
		return
	}

	s.mux.Handle("GET /static/", handler)
	s.mux.Handle("HEAD /static/", handler)
}
