package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
)

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Redis    string `json:"redis"`
	}
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
		op.Tags = []string{"ops"}
	})
}

func (s *Server) registerMetricsRoute() {
	if s.metrics == nil {
		return
	}
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Database = "unconfigured"
	resp.Body.Redis = "unconfigured"

	if s.database != nil {
		resp.Body.Database = "ok"
		if err := s.database.PingContext(ctx); err != nil {
			s.recordError(ctx, err, "pinging database", nil)
			resp.Body.Status = "degraded"
			resp.Body.Database = "error"
			resp.Status = stdhttp.StatusServiceUnavailable
		}
	}

	// A redis outage degrades the status but keeps the check passing.
	if s.redis != nil {
		resp.Body.Redis = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.recordError(ctx, err, "pinging redis", nil)
			resp.Body.Status = "degraded"
			resp.Body.Redis = "error"
		}
	}

	return resp, nil
}
