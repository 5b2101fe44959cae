package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/portfolio"
)

type settingsView struct {
	AccentColor string `json:"accent_color,omitempty" doc:"Accent colour as #rrggbb"`
	Font        string `json:"font,omitempty"`
	ShowContact *bool  `json:"show_contact,omitempty"`
}

type skillView struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

type projectView struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty" doc:"Markdown"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type experienceView struct {
	Company   string `json:"company"`
	Role      string `json:"role"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

type educationView struct {
	School    string `json:"school"`
	Degree    string `json:"degree,omitempty"`
	Field     string `json:"field,omitempty"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

type socialLinkView struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type profileView struct {
	Skills      []skillView      `json:"skills,omitempty"`
	Projects    []projectView    `json:"projects,omitempty"`
	Experience  []experienceView `json:"experience,omitempty"`
	Education   []educationView  `json:"education,omitempty"`
	SocialLinks []socialLinkView `json:"social_links,omitempty"`
}

type portfolioView struct {
	ID        uint         `json:"id"`
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	Headline  string       `json:"headline,omitempty"`
	Bio       string       `json:"bio,omitempty"`
	Theme     string       `json:"theme"`
	Settings  settingsView `json:"settings"`
	Published bool         `json:"published"`
	PublicURL string       `json:"public_url"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Profile   *profileView `json:"profile,omitempty"`
}

type portfolioOutput struct {
	Body portfolioView
}

type portfolioListOutput struct {
	Body struct {
		Portfolios []portfolioView `json:"portfolios"`
	}
}

type portfolioIDInput struct {
	ID uint `path:"id"`
}

type createPortfolioInput struct {
	Body struct {
		Title    string `json:"title" maxLength:"500"`
		Slug     string `json:"slug,omitempty" doc:"Derived from the title when omitted"`
		Headline string `json:"headline,omitempty"`
		Bio      string `json:"bio,omitempty"`
		Theme    string `json:"theme,omitempty"`
	}
}

type createPortfolioOutput struct {
	Status int
	Body   portfolioView
}

type updatePortfolioInput struct {
	ID   uint `path:"id"`
	Body struct {
		Title    *string `json:"title,omitempty"`
		Slug     *string `json:"slug,omitempty" doc:"Empty keeps the current slug unless the title changes"`
		Headline *string `json:"headline,omitempty"`
		Bio      *string `json:"bio,omitempty"`
	}
}

type themeInput struct {
	ID   uint `path:"id"`
	Body struct {
		Theme    string       `json:"theme,omitempty"`
		Settings settingsView `json:"settings,omitempty"`
	}
}

type profileInput struct {
	ID   uint `path:"id"`
	Body profileView
}

type publishInput struct {
	ID   uint `path:"id"`
	Body struct {
		Published bool `json:"published"`
	}
}

type slugAvailabilityInput struct {
	Slug    string `query:"slug"`
	Exclude uint   `query:"exclude" doc:"Portfolio ID to ignore, for renames"`
}

type slugAvailabilityOutput struct {
	Body struct {
		Slug      string `json:"slug"`
		Available bool   `json:"available"`
	}
}

type slugSuggestInput struct {
	Title   string `query:"title"`
	Exclude uint   `query:"exclude" doc:"Portfolio ID to ignore, for renames"`
}

type slugSuggestOutput struct {
	Body struct {
		Slug string `json:"slug"`
	}
}

func (s *Server) registerPortfolioRoutes() {
	tags := []string{"portfolios"}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-portfolios",
		Method:      stdhttp.MethodGet,
		Path:        "/api/portfolios",
		Summary:     "List your portfolios",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.listPortfoliosHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-portfolio",
		Method:        stdhttp.MethodPost,
		Path:          "/api/portfolios",
		Summary:       "Create a portfolio",
		Tags:          tags,
		Security:      bearerAuth,
		DefaultStatus: stdhttp.StatusCreated,
	}, s.createPortfolioHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-portfolio",
		Method:      stdhttp.MethodGet,
		Path:        "/api/portfolios/{id}",
		Summary:     "Fetch a portfolio with its profile",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.getPortfolioHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-portfolio",
		Method:      stdhttp.MethodPut,
		Path:        "/api/portfolios/{id}",
		Summary:     "Update portfolio fields",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.updatePortfolioHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-portfolio",
		Method:        stdhttp.MethodDelete,
		Path:          "/api/portfolios/{id}",
		Summary:       "Delete a portfolio",
		Tags:          tags,
		Security:      bearerAuth,
		DefaultStatus: stdhttp.StatusNoContent,
	}, s.deletePortfolioHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-portfolio-theme",
		Method:      stdhttp.MethodPut,
		Path:        "/api/portfolios/{id}/theme",
		Summary:     "Select a theme and merge its settings",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.updateThemeHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "replace-portfolio-profile",
		Method:      stdhttp.MethodPut,
		Path:        "/api/portfolios/{id}/profile",
		Summary:     "Replace every profile section",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.replaceProfileHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "publish-portfolio",
		Method:      stdhttp.MethodPut,
		Path:        "/api/portfolios/{id}/publish",
		Summary:     "Publish or unpublish a portfolio",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.publishHandler)
}

func (s *Server) registerSlugRoutes() {
	tags := []string{"slugs"}

	huma.Register(s.api, huma.Operation{
		OperationID: "slug-availability",
		Method:      stdhttp.MethodGet,
		Path:        "/api/slugs/availability",
		Summary:     "Check whether a slug is free",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.slugAvailabilityHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "slug-suggest",
		Method:      stdhttp.MethodGet,
		Path:        "/api/slugs/suggest",
		Summary:     "Suggest a free slug for a title",
		Tags:        tags,
		Security:    bearerAuth,
	}, s.slugSuggestHandler)
}

func (s *Server) listPortfoliosHandler(ctx context.Context, _ *struct{}) (*portfolioListOutput, error) {
	portfolios, err := s.portfolios.List(ctx, callerID(ctx))
	if err != nil {
		return nil, s.apiError(ctx, err, "listing portfolios", nil)
	}

	out := &portfolioListOutput{}
	out.Body.Portfolios = make([]portfolioView, 0, len(portfolios))
	for i := range portfolios {
		out.Body.Portfolios = append(out.Body.Portfolios, toPortfolioView(&portfolios[i]))
	}
	return out, nil
}

func (s *Server) createPortfolioHandler(ctx context.Context, input *createPortfolioInput) (*createPortfolioOutput, error) {
	p, err := s.portfolios.Create(ctx, callerID(ctx), portfolio.CreateInput{
		Title:    input.Body.Title,
		Slug:     input.Body.Slug,
		Headline: input.Body.Headline,
		Bio:      input.Body.Bio,
		Theme:    portfolio.Theme(input.Body.Theme),
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "creating portfolio", logrus.Fields{"title": input.Body.Title})
	}

	return &createPortfolioOutput{Status: stdhttp.StatusCreated, Body: toPortfolioView(p)}, nil
}

func (s *Server) getPortfolioHandler(ctx context.Context, input *portfolioIDInput) (*portfolioOutput, error) {
	p, err := s.portfolios.Get(ctx, callerID(ctx), input.ID)
	if err != nil {
		return nil, s.apiError(ctx, err, "loading portfolio", logrus.Fields{"portfolio_id": input.ID})
	}
	return &portfolioOutput{Body: toPortfolioView(p)}, nil
}

func (s *Server) updatePortfolioHandler(ctx context.Context, input *updatePortfolioInput) (*portfolioOutput, error) {
	p, err := s.portfolios.Update(ctx, callerID(ctx), input.ID, portfolio.UpdateInput{
		Title:    input.Body.Title,
		Slug:     input.Body.Slug,
		Headline: input.Body.Headline,
		Bio:      input.Body.Bio,
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "updating portfolio", logrus.Fields{"portfolio_id": input.ID})
	}
	return &portfolioOutput{Body: toPortfolioView(p)}, nil
}

func (s *Server) deletePortfolioHandler(ctx context.Context, input *portfolioIDInput) (*struct{}, error) {
	if err := s.portfolios.Delete(ctx, callerID(ctx), input.ID); err != nil {
		return nil, s.apiError(ctx, err, "deleting portfolio", logrus.Fields{"portfolio_id": input.ID})
	}
	return nil, nil
}

func (s *Server) updateThemeHandler(ctx context.Context, input *themeInput) (*portfolioOutput, error) {
	settings := input.Body.Settings
	p, err := s.portfolios.UpdateTheme(ctx, callerID(ctx), input.ID, input.Body.Theme, portfolio.ThemeSettings{
		AccentColor: settings.AccentColor,
		Font:        settings.Font,
		ShowContact: settings.ShowContact,
	})
	if err != nil {
		return nil, s.apiError(ctx, err, "updating theme", logrus.Fields{"portfolio_id": input.ID})
	}
	return &portfolioOutput{Body: toPortfolioView(p)}, nil
}

func (s *Server) replaceProfileHandler(ctx context.Context, input *profileInput) (*portfolioOutput, error) {
	p, err := s.portfolios.ReplaceProfile(ctx, callerID(ctx), input.ID, fromProfileView(input.Body))
	if err != nil {
		return nil, s.apiError(ctx, err, "replacing profile", logrus.Fields{"portfolio_id": input.ID})
	}
	return &portfolioOutput{Body: toPortfolioView(p)}, nil
}

func (s *Server) publishHandler(ctx context.Context, input *publishInput) (*portfolioOutput, error) {
	p, err := s.portfolios.SetPublished(ctx, callerID(ctx), input.ID, input.Body.Published)
	if err != nil {
		return nil, s.apiError(ctx, err, "changing publish state", logrus.Fields{"portfolio_id": input.ID})
	}
	return &portfolioOutput{Body: toPortfolioView(p)}, nil
}

func (s *Server) slugAvailabilityHandler(ctx context.Context, input *slugAvailabilityInput) (*slugAvailabilityOutput, error) {
	available, err := s.portfolios.SlugAvailable(ctx, callerID(ctx), input.Slug, input.Exclude)
	if err != nil {
		return nil, s.apiError(ctx, err, "checking slug availability", logrus.Fields{"slug": input.Slug})
	}

	out := &slugAvailabilityOutput{}
	out.Body.Slug = input.Slug
	out.Body.Available = available
	return out, nil
}

func (s *Server) slugSuggestHandler(ctx context.Context, input *slugSuggestInput) (*slugSuggestOutput, error) {
	slug, err := s.portfolios.SuggestSlug(ctx, callerID(ctx), input.Title, input.Exclude)
	if err != nil {
		return nil, s.apiError(ctx, err, "suggesting slug", logrus.Fields{"title": input.Title})
	}

	out := &slugSuggestOutput{}
	out.Body.Slug = slug
	return out, nil
}

func toPortfolioView(p *portfolio.Portfolio) portfolioView {
	view := portfolioView{
		ID:       p.ID,
		Slug:     p.Slug,
		Title:    p.Title,
		Headline: p.Headline,
		Bio:      p.Bio,
		Theme:    string(p.Theme),
		Settings: settingsView{
			AccentColor: p.Settings.AccentColor,
			Font:        p.Settings.Font,
			ShowContact: p.Settings.ShowContact,
		},
		Published: p.Published,
		PublicURL: publicPath(p.OwnerUsername, p.Slug),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Profile != nil {
		profile := toProfileView(p.Profile)
		view.Profile = &profile
	}
	return view
}

func toProfileView(profile *portfolio.Profile) profileView {
	view := profileView{}
	for _, skill := range profile.Skills {
		view.Skills = append(view.Skills, skillView{Name: skill.Name, Level: skill.Level})
	}
	for _, project := range profile.Projects {
		view.Projects = append(view.Projects, projectView{
			Title:       project.Title,
			Description: project.Description,
			URL:         project.URL,
			Tags:        project.Tags,
		})
	}
	for _, entry := range profile.Experience {
		view.Experience = append(view.Experience, experienceView{
			Company:   entry.Company,
			Role:      entry.Role,
			StartDate: entry.StartDate,
			EndDate:   entry.EndDate,
			Summary:   entry.Summary,
		})
	}
	for _, entry := range profile.Education {
		view.Education = append(view.Education, educationView{
			School:    entry.School,
			Degree:    entry.Degree,
			Field:     entry.Field,
			StartYear: entry.StartYear,
			EndYear:   entry.EndYear,
		})
	}
	for _, link := range profile.SocialLinks {
		view.SocialLinks = append(view.SocialLinks, socialLinkView{Platform: link.Platform, URL: link.URL})
	}
	return view
}

func fromProfileView(view profileView) portfolio.Profile {
	profile := portfolio.Profile{}
	for _, skill := range view.Skills {
		profile.Skills = append(profile.Skills, portfolio.Skill{Name: skill.Name, Level: skill.Level})
	}
	for _, project := range view.Projects {
		profile.Projects = append(profile.Projects, portfolio.Project{
			Title:       project.Title,
			Description: project.Description,
			URL:         project.URL,
			Tags:        project.Tags,
		})
	}
	for _, entry := range view.Experience {
		profile.Experience = append(profile.Experience, portfolio.Experience{
			Company:   entry.Company,
			Role:      entry.Role,
			StartDate: entry.StartDate,
			EndDate:   entry.EndDate,
			Summary:   entry.Summary,
		})
	}
	for _, entry := range view.Education {
		profile.Education = append(profile.Education, portfolio.Education{
			School:    entry.School,
			Degree:    entry.Degree,
			Field:     entry.Field,
			StartYear: entry.StartYear,
			EndYear:   entry.EndYear,
		})
	}
	for _, link := range view.SocialLinks {
		profile.SocialLinks = append(profile.SocialLinks, portfolio.SocialLink{Platform: link.Platform, URL: link.URL})
	}
	return profile
}

func publicPath(username, slug string) string {
	if username == "" {
		return ""
	}
	return "/p/" + username + "/" + slug
}
