package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/ai"
)

type enhanceInput struct {
	Body struct {
		Content string `json:"content,omitempty"`
		Type    string `json:"type,omitempty" doc:"improve, proofread, simplify, expand or keywords"`
		Tone    string `json:"tone,omitempty" doc:"professional, conversational, technical, enthusiastic or authoritative"`
	}
}

type textOutput struct {
	Body struct {
		Content string `json:"content"`
	}
}

type bioInput struct {
	Body struct {
		Skills     []string `json:"skills,omitempty"`
		Experience string   `json:"experience,omitempty"`
		Education  string   `json:"education,omitempty"`
		Tone       string   `json:"tone,omitempty"`
	}
}

type skillsInput struct {
	Body struct {
		JobTitle      string   `json:"job_title,omitempty"`
		CurrentSkills []string `json:"current_skills,omitempty"`
		Experience    string   `json:"experience,omitempty"`
	}
}

type skillsOutput struct {
	Body struct {
		Skills []string `json:"skills"`
	}
}

type quotaOutput struct {
	Body struct {
		Limit         int `json:"limit"`
		Used          int `json:"used"`
		Remaining     int `json:"remaining"`
		WindowSeconds int `json:"window_seconds"`
	}
}

func (s *Server) registerAIRoutes() {
	tags := []string{"ai"}

	huma.Register(s.api, huma.Operation{
		OperationID: "ai-enhance",
		Method:      stdhttp.MethodPost,
		Path:        "/api/ai/enhance",
		Summary:     "Rewrite portfolio text",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.enhanceHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "ai-bio",
		Method:      stdhttp.MethodPost,
		Path:        "/api/ai/bio",
		Summary:     "Generate a professional bio",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.bioHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "ai-skills",
		Method:      stdhttp.MethodPost,
		Path:        "/api/ai/skills",
		Summary:     "Recommend skills for a role",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.skillsHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "ai-quota",
		Method:      stdhttp.MethodGet,
		Path:        "/api/ai/quota",
		Summary:     "Remaining AI requests in the current window",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.quotaHandler)
}

func (s *Server) enhanceHandler(ctx context.Context, input *enhanceInput) (*textOutput, error) {
	content, err := s.gateway.Enhance(ctx, ai.EnhancementRequest{
		Content: input.Body.Content,
		Type:    ai.EnhancementType(input.Body.Type),
		Tone:    ai.Tone(input.Body.Tone),
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "enhancing content", logrus.Fields{"type": input.Body.Type})
	}

	out := &textOutput{}
	out.Body.Content = content
	return out, nil
}

func (s *Server) bioHandler(ctx context.Context, input *bioInput) (*textOutput, error) {
	bio, err := s.gateway.GenerateBio(ctx, ai.BioRequest{
		Skills:     input.Body.Skills,
		Experience: input.Body.Experience,
		Education:  input.Body.Education,
		Tone:       ai.Tone(input.Body.Tone),
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "generating bio", nil)
	}

	out := &textOutput{}
	out.Body.Content = bio
	return out, nil
}

func (s *Server) skillsHandler(ctx context.Context, input *skillsInput) (*skillsOutput, error) {
	skills, err := s.gateway.RecommendSkills(ctx, ai.SkillRecommendationRequest{
		JobTitle:      input.Body.JobTitle,
		CurrentSkills: input.Body.CurrentSkills,
		Experience:    input.Body.Experience,
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "recommending skills", logrus.Fields{"job_title": input.Body.JobTitle})
	}

	out := &skillsOutput{}
	out.Body.Skills = skills
	return out, nil
}

func (s *Server) quotaHandler(ctx context.Context, _ *struct{}) (*quotaOutput, error) {
	quota, err := s.gateway.Remaining(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "loading ai quota", nil)
	}

	out := &quotaOutput{}
	out.Body.Limit = quota.Limit
	out.Body.Used = quota.Used
	out.Body.Remaining = quota.Remaining
	out.Body.WindowSeconds = int(quota.Window.Seconds())
	return out, nil
}
