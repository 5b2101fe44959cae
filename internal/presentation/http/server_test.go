package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/account"
	"folio/app/internal/domain/ai"
	"folio/app/internal/domain/errs"
	"folio/app/internal/domain/portfolio"
	"folio/app/internal/platform/metrics"
)

const validToken = "valid-token"

func TestRegisterReturnsCreatedUser(t *testing.T) {
	t.Parallel()

	accounts := &stubAccounts{}
	srv := newTestServer(t, testDeps{accounts: accounts})

	rec := serve(srv, "POST", "/api/auth/register", `{"email":"ada@example.com","username":"ada","password":"correct horse"}`, "")
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body userView
	decode(t, rec, &body)
	if body.Username != "ada" || body.ID != 7 {
		t.Fatalf("unexpected user: %+v", body)
	}
	if accounts.registered != "ada@example.com" {
		t.Fatalf("expected register to receive email, got %q", accounts.registered)
	}
}

func TestRegisterMapsDuplicateToConflict(t *testing.T) {
	t.Parallel()

	accounts := &stubAccounts{registerErr: eris.Wrap(account.ErrAccountExists, "email ada@example.com")}
	srv := newTestServer(t, testDeps{accounts: accounts})

	rec := serve(srv, "POST", "/api/auth/register", `{"email":"ada@example.com","username":"ada","password":"correct horse"}`, "")
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testDeps{})

	rec := serve(srv, "POST", "/api/auth/login", `{"email":"ada@example.com","password":"correct horse"}`, "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	decode(t, rec, &body)
	if body.Token != validToken || body.TokenType != "Bearer" {
		t.Fatalf("unexpected login body: %+v", body)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testDeps{accounts: &stubAccounts{loginErr: account.ErrInvalidCredentials}})

	rec := serve(srv, "POST", "/api/auth/login", `{"email":"ada@example.com","password":"wrong"}`, "")
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	portfolios := &stubPortfolios{}
	gateway := &stubGateway{}
	srv := newTestServer(t, testDeps{portfolios: portfolios, gateway: gateway})

	cases := []struct {
		method string
		path   string
		body   string
		token  string
	}{
		{"GET", "/api/portfolios", "", ""},
		{"POST", "/api/portfolios", `{"title":"x"}`, ""},
		{"POST", "/api/ai/enhance", `{}`, ""},
		{"GET", "/api/ai/quota", "", "expired-token"},
		{"GET", "/api/auth/me", "", ""},
	}
	for _, tc := range cases {
		rec := serve(srv, tc.method, tc.path, tc.body, tc.token)
		if rec.Code != stdhttp.StatusUnauthorized {
			t.Fatalf("%s %s: expected status 401, got %d", tc.method, tc.path, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("%s %s: expected WWW-Authenticate header", tc.method, tc.path)
		}
	}

	if portfolios.calls != 0 || gateway.calls != 0 {
		t.Fatalf("expected no service calls for anonymous requests, got %d/%d", portfolios.calls, gateway.calls)
	}
}

func TestCreatePortfolioPassesCaller(t *testing.T) {
	t.Parallel()

	portfolios := &stubPortfolios{}
	srv := newTestServer(t, testDeps{portfolios: portfolios})

	rec := serve(srv, "POST", "/api/portfolios", `{"title":"My Project","theme":"dark"}`, validToken)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if portfolios.lastOwner != 7 {
		t.Fatalf("expected owner 7, got %d", portfolios.lastOwner)
	}

	var body portfolioView
	decode(t, rec, &body)
	if body.Slug != "my-project" || body.Theme != "dark" {
		t.Fatalf("unexpected portfolio: %+v", body)
	}
	if body.PublicURL != "/p/ada/my-project" {
		t.Fatalf("unexpected public url %q", body.PublicURL)
	}
}

func TestCreatePortfolioMapsDomainErrors(t *testing.T) {
	t.Parallel()

	validation := &errs.ValidationError{}
	validation.Add("slug", "must be lowercase", "Bad Slug")

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", validation, stdhttp.StatusUnprocessableEntity},
		{"slug taken", eris.Wrap(portfolio.ErrSlugTaken, "slug taken"), stdhttp.StatusConflict},
		{"slug exhausted", eris.Wrap(portfolio.ErrSlugExhausted, "allocating slug"), stdhttp.StatusConflict},
		{"persistence", eris.Wrap(errs.Persistence("creating", eris.New("disk full")), "creating"), stdhttp.StatusInternalServerError},
	}

	for _, tc := range cases {
		srv := newTestServer(t, testDeps{portfolios: &stubPortfolios{err: tc.err}})
		rec := serve(srv, "POST", "/api/portfolios", `{"title":"x","slug":"Bad Slug"}`, validToken)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "disk full") {
			t.Fatalf("%s: internal error leaked into response", tc.name)
		}
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	t.Parallel()

	validation := &errs.ValidationError{}
	validation.Add("slug", "must be lowercase", "Bad Slug")
	validation.Add("theme", "unknown theme", "neon")
	srv := newTestServer(t, testDeps{portfolios: &stubPortfolios{err: validation}})

	rec := serve(srv, "POST", "/api/portfolios", `{"title":"x"}`, validToken)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body struct {
		Errors []struct {
			Location string `json:"location"`
			Message  string `json:"message"`
		} `json:"errors"`
	}
	decode(t, rec, &body)
	if len(body.Errors) != 2 || body.Errors[0].Location != "body.slug" || body.Errors[1].Location != "body.theme" {
		t.Fatalf("unexpected error details: %+v", body.Errors)
	}
}

func TestGetAndDeletePortfolio(t *testing.T) {
	t.Parallel()

	portfolios := &stubPortfolios{}
	srv := newTestServer(t, testDeps{portfolios: portfolios})

	rec := serve(srv, "GET", "/api/portfolios/3", "", validToken)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body portfolioView
	decode(t, rec, &body)
	if body.ID != 3 || body.Profile == nil || len(body.Profile.Skills) != 1 {
		t.Fatalf("expected portfolio with profile, got %+v", body)
	}

	rec = serve(srv, "DELETE", "/api/portfolios/3", "", validToken)
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	missing := newTestServer(t, testDeps{portfolios: &stubPortfolios{err: eris.Wrapf(errs.ErrNotFound, "portfolio %d", 9)}})
	rec = serve(missing, "GET", "/api/portfolios/9", "", validToken)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestSlugRoutes(t *testing.T) {
	t.Parallel()

	portfolios := &stubPortfolios{}
	srv := newTestServer(t, testDeps{portfolios: portfolios})

	rec := serve(srv, "GET", "/api/slugs/suggest?title=My+Project&exclude=4", "", validToken)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var suggest struct {
		Slug string `json:"slug"`
	}
	decode(t, rec, &suggest)
	if suggest.Slug != "my-project-2" || portfolios.lastExclude != 4 {
		t.Fatalf("unexpected suggestion %q (exclude %d)", suggest.Slug, portfolios.lastExclude)
	}

	rec = serve(srv, "GET", "/api/slugs/availability?slug=taken", "", validToken)
	var availability struct {
		Slug      string `json:"slug"`
		Available bool   `json:"available"`
	}
	decode(t, rec, &availability)
	if availability.Available {
		t.Fatalf("expected taken slug to be unavailable")
	}
}

func TestAIRoutesReturnContent(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{text: "Sharper text.", skills: []string{"Go", "Kubernetes"}}
	srv := newTestServer(t, testDeps{gateway: gateway})

	rec := serve(srv, "POST", "/api/ai/enhance", `{"content":"text","type":"improve","tone":"professional"}`, validToken)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var text struct {
		Content string `json:"content"`
	}
	decode(t, rec, &text)
	if text.Content != "Sharper text." {
		t.Fatalf("unexpected content %q", text.Content)
	}
	if gateway.lastEnhance.Type != ai.EnhanceImprove || gateway.callerID != 7 {
		t.Fatalf("unexpected gateway call: %+v caller %d", gateway.lastEnhance, gateway.callerID)
	}

	rec = serve(srv, "POST", "/api/ai/skills", `{"job_title":"SRE"}`, validToken)
	var skills struct {
		Skills []string `json:"skills"`
	}
	decode(t, rec, &skills)
	if len(skills.Skills) != 2 {
		t.Fatalf("unexpected skills %v", skills.Skills)
	}

	rec = serve(srv, "GET", "/api/ai/quota", "", validToken)
	var quota struct {
		Limit         int `json:"limit"`
		Remaining     int `json:"remaining"`
		WindowSeconds int `json:"window_seconds"`
	}
	decode(t, rec, &quota)
	if quota.Limit != 10 || quota.Remaining != 7 || quota.WindowSeconds != 3600 {
		t.Fatalf("unexpected quota %+v", quota)
	}
}

func TestAIErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		status     int
		retryAfter string
	}{
		{"quota", &ai.RateLimitError{Limit: 10, Used: 10, RetryAfter: time.Hour}, stdhttp.StatusTooManyRequests, "3600"},
		{"upstream throttled", &ai.GenerationError{Kind: ai.GenerationUpstreamRateLimited}, stdhttp.StatusTooManyRequests, "60"},
		{"upstream down", &ai.GenerationError{Kind: ai.GenerationUpstreamUnavailable}, stdhttp.StatusServiceUnavailable, ""},
		{"upstream bad request", &ai.GenerationError{Kind: ai.GenerationUpstreamBadRequest}, stdhttp.StatusBadGateway, ""},
		{"empty output", eris.Wrap(&ai.GenerationError{Kind: ai.GenerationEmptyOutput}, "parsing"), stdhttp.StatusBadGateway, ""},
		{"rejected", &ai.GenerationError{Kind: ai.GenerationUpstreamRejected}, stdhttp.StatusBadGateway, ""},
	}

	for _, tc := range cases {
		srv := newTestServer(t, testDeps{gateway: &stubGateway{err: tc.err}})
		rec := serve(srv, "POST", "/api/ai/bio", `{"skills":["Go"],"tone":"professional"}`, validToken)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != tc.retryAfter {
			t.Fatalf("%s: expected Retry-After %q, got %q", tc.name, tc.retryAfter, got)
		}
	}
}

func TestPublicPageRendersSanitisedHTML(t *testing.T) {
	t.Parallel()

	showContact := true
	page := &portfolio.Portfolio{
		ID:            1,
		OwnerUsername: "ada",
		Slug:          "cv",
		Title:         "Ada <Lovelace>",
		Headline:      "Engineer <b>first</b>",
		Bio:           "I build **reliable** systems.<script>alert(1)</script>",
		Theme:         portfolio.ThemeDark,
		Settings:      portfolio.ThemeSettings{AccentColor: "#ff8800", Font: "serif", ShowContact: &showContact},
		Published:     true,
		Profile: &portfolio.Profile{
			Skills: []portfolio.Skill{{Name: "Go", Level: "expert"}},
			Projects: []portfolio.Project{{
				Title:       "Engine",
				Description: "A [link](javascript:alert(1)) and `code`.",
				URL:         "https://example.com/engine",
				Tags:        []string{"math"},
			}},
			SocialLinks: []portfolio.SocialLink{{Platform: "github", URL: "https://github.com/ada"}},
		},
	}
	srv := newTestServer(t, testDeps{portfolios: &stubPortfolios{public: page}})

	rec := serve(srv, "GET", "/p/ada/cv", "", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`class="theme-dark font-serif"`,
		"--accent:#ff8800",
		"Ada &lt;Lovelace&gt;",
		"<strong>reliable</strong>",
		"<code>code</code>",
		`href="https://example.com/engine"`,
		`href="https://github.com/ada"`,
		stylesheetPath,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q, got %q", want, body)
		}
	}
	for _, unwanted := range []string{"<script>", "javascript:", "<b>first</b>"} {
		if strings.Contains(body, unwanted) {
			t.Fatalf("expected body not to contain %q, got %q", unwanted, body)
		}
	}
}

func TestPublicPageHidesContactWhenDisabled(t *testing.T) {
	t.Parallel()

	hide := false
	page := &portfolio.Portfolio{
		OwnerUsername: "ada",
		Slug:          "cv",
		Title:         "Ada",
		Theme:         portfolio.ThemeMinimal,
		Settings:      portfolio.ThemeSettings{ShowContact: &hide},
		Profile:       &portfolio.Profile{SocialLinks: []portfolio.SocialLink{{Platform: "github", URL: "https://github.com/ada"}}},
	}
	srv := newTestServer(t, testDeps{portfolios: &stubPortfolios{public: page}})

	rec := serve(srv, "GET", "/p/ada/cv", "", "")
	if strings.Contains(rec.Body.String(), "github.com/ada") {
		t.Fatalf("expected social links to be hidden")
	}
}

func TestPublicPageNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testDeps{portfolios: &stubPortfolios{err: eris.Wrap(errs.ErrNotFound, "public portfolio")}})

	rec := serve(srv, "GET", "/p/ada/missing", "", "")
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "has not been published") {
		t.Fatalf("expected HTML not-found message, got %q", rec.Body.String())
	}
}

func TestRateLimiterMiddlewareCapsRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testDeps{burst: 3})

	current := time.Unix(0, 0)
	srv.rateLimiter.now = func() time.Time {
		return current
	}

	for i := 0; i < 3; i++ {
		rec := serve(srv, "GET", "/healthz", "", "")
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("expected request %d to be allowed, got status %d", i+1, rec.Code)
		}
	}

	rec := serve(srv, "GET", "/healthz", "", "")
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", stdhttp.StatusTooManyRequests, rec.Code)
	}
	if header := rec.Header().Get("Retry-After"); header != "1" {
		t.Fatalf("expected Retry-After header to be 1, got %q", header)
	}
	if !strings.Contains(rec.Body.String(), "Please wait a moment") {
		t.Fatalf("expected rate limit message in body, got %q", rec.Body.String())
	}

	current = current.Add(time.Second)
	if rec := serve(srv, "GET", "/healthz", "", ""); rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200 after refill, got %d", rec.Code)
	}
}

func TestHealthRouteReportsDependencies(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testDeps{database: &stubPinger{}, redis: &stubRedis{}})
	rec := serve(srv, "GET", "/healthz", "", "")
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	degraded := newTestServer(t, testDeps{database: &stubPinger{err: eris.New("db down")}, redis: &stubRedis{err: eris.New("redis down")}})
	rec = serve(degraded, "GET", "/healthz", "", "")
	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Redis    string `json:"redis"`
	}
	decode(t, rec, &body)
	if body.Status != "degraded" || body.Database != "error" || body.Redis != "error" {
		t.Fatalf("unexpected health body %+v", body)
	}
}

func TestMetricsAndStaticRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testDeps{})

	rec := serve(srv, "GET", "/metrics", "", "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus exposition, got %d", rec.Code)
	}

	rec = serve(srv, "GET", stylesheetPath, "", "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), ".theme-dark") {
		t.Fatalf("expected stylesheet, got %d", rec.Code)
	}
}

func TestNewServerValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{}); err == nil {
		t.Fatalf("expected error for missing services")
	}

	_, err := NewServer(Options{
		Portfolios: &stubPortfolios{},
		Accounts:   &stubAccounts{},
		Gateway:    &stubGateway{},
	})
	if err == nil {
		t.Fatalf("expected error for missing rate limiter settings")
	}
}

// helper utilities

type testDeps struct {
	portfolios *stubPortfolios
	accounts   *stubAccounts
	gateway    *stubGateway
	database   DatabasePinger
	redis      RedisPinger
	burst      int
}

func newTestServer(t *testing.T, deps testDeps) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if deps.portfolios == nil {
		deps.portfolios = &stubPortfolios{}
	}
	if deps.accounts == nil {
		deps.accounts = &stubAccounts{}
	}
	if deps.gateway == nil {
		deps.gateway = &stubGateway{}
	}
	if deps.burst == 0 {
		deps.burst = 100
	}

	srv, err := NewServer(Options{
		Portfolios: deps.portfolios,
		Accounts:   deps.accounts,
		Gateway:    deps.gateway,
		Database:   deps.database,
		Redis:      deps.redis,
		Metrics:    metrics.New(),
		Logger:     logger,
		RateLimiter: RateLimiterSettings{
			Burst:             deps.burst,
			RequestsPerSecond: 3,
			ClientTTL:         time.Minute,
		},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return srv
}

func serve(srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// stubs

type stubAccounts struct {
	registered  string
	registerErr error
	loginErr    error
}

func (s *stubAccounts) Register(_ context.Context, email, username, _, displayName string) (*account.User, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	s.registered = email
	return &account.User{ID: 7, Email: email, Username: username, DisplayName: displayName, CreatedAt: time.Now()}, nil
}

func (s *stubAccounts) Login(_ context.Context, email, _ string) (string, *account.User, error) {
	if s.loginErr != nil {
		return "", nil, s.loginErr
	}
	return validToken, &account.User{ID: 7, Email: email, Username: "ada"}, nil
}

func (s *stubAccounts) Authenticate(token string) (account.Identity, error) {
	if token != validToken {
		return account.Identity{}, errs.ErrUnauthorized
	}
	return account.Identity{UserID: 7, Username: "ada"}, nil
}

func (s *stubAccounts) Profile(_ context.Context, identity account.Identity) (*account.User, error) {
	return &account.User{ID: identity.UserID, Username: identity.Username}, nil
}

type stubPortfolios struct {
	calls       int
	lastOwner   uint
	lastExclude uint
	err         error
	public      *portfolio.Portfolio
}

func (s *stubPortfolios) record(owner uint) error {
	s.calls++
	s.lastOwner = owner
	return s.err
}

func (s *stubPortfolios) sample(owner, id uint, slug string) *portfolio.Portfolio {
	return &portfolio.Portfolio{ID: id, OwnerID: owner, OwnerUsername: "ada", Slug: slug, Title: "Sample", Theme: portfolio.DefaultTheme}
}

func (s *stubPortfolios) Create(_ context.Context, ownerID uint, input portfolio.CreateInput) (*portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	p := s.sample(ownerID, 1, "my-project")
	p.Title = input.Title
	p.Theme = input.Theme
	return p, nil
}

func (s *stubPortfolios) Update(_ context.Context, ownerID, id uint, _ portfolio.UpdateInput) (*portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	return s.sample(ownerID, id, "updated"), nil
}

func (s *stubPortfolios) UpdateTheme(_ context.Context, ownerID, id uint, theme string, settings portfolio.ThemeSettings) (*portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	p := s.sample(ownerID, id, "themed")
	p.Theme = portfolio.Theme(theme)
	p.Settings = settings
	return p, nil
}

func (s *stubPortfolios) ReplaceProfile(_ context.Context, ownerID, id uint, profile portfolio.Profile) (*portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	p := s.sample(ownerID, id, "profiled")
	p.Profile = &profile
	return p, nil
}

func (s *stubPortfolios) SetPublished(_ context.Context, ownerID, id uint, published bool) (*portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	p := s.sample(ownerID, id, "published")
	p.Published = published
	return p, nil
}

func (s *stubPortfolios) Get(_ context.Context, ownerID, id uint) (*portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	p := s.sample(ownerID, id, "sample")
	p.Profile = &portfolio.Profile{Skills: []portfolio.Skill{{Name: "Go"}}}
	return p, nil
}

func (s *stubPortfolios) List(_ context.Context, ownerID uint) ([]portfolio.Portfolio, error) {
	if err := s.record(ownerID); err != nil {
		return nil, err
	}
	return []portfolio.Portfolio{*s.sample(ownerID, 1, "one")}, nil
}

func (s *stubPortfolios) Delete(_ context.Context, ownerID, _ uint) error {
	return s.record(ownerID)
}

func (s *stubPortfolios) PublicPage(_ context.Context, _, _ string) (*portfolio.Portfolio, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.public == nil {
		return nil, eris.Wrap(errs.ErrNotFound, "public portfolio")
	}
	return s.public, nil
}

func (s *stubPortfolios) SuggestSlug(_ context.Context, ownerID uint, _ string, excludeID uint) (string, error) {
	s.lastExclude = excludeID
	if err := s.record(ownerID); err != nil {
		return "", err
	}
	return "my-project-2", nil
}

func (s *stubPortfolios) SlugAvailable(_ context.Context, ownerID uint, slug string, excludeID uint) (bool, error) {
	s.lastExclude = excludeID
	if err := s.record(ownerID); err != nil {
		return false, err
	}
	return slug != "taken", nil
}

var _ portfolio.Service = (*stubPortfolios)(nil)

type stubGateway struct {
	calls       int
	callerID    uint
	text        string
	skills      []string
	err         error
	lastEnhance ai.EnhancementRequest
}

func (s *stubGateway) observe(ctx context.Context) error {
	s.calls++
	identity, _ := account.IdentityFromContext(ctx)
	s.callerID = identity.UserID
	return s.err
}

func (s *stubGateway) Enhance(ctx context.Context, req ai.EnhancementRequest) (string, error) {
	s.lastEnhance = req
	if err := s.observe(ctx); err != nil {
		return "", err
	}
	return s.text, nil
}

func (s *stubGateway) GenerateBio(ctx context.Context, _ ai.BioRequest) (string, error) {
	if err := s.observe(ctx); err != nil {
		return "", err
	}
	return s.text, nil
}

func (s *stubGateway) RecommendSkills(ctx context.Context, _ ai.SkillRecommendationRequest) ([]string, error) {
	if err := s.observe(ctx); err != nil {
		return nil, err
	}
	return s.skills, nil
}

func (s *stubGateway) Remaining(ctx context.Context) (ai.Quota, error) {
	if err := s.observe(ctx); err != nil {
		return ai.Quota{}, err
	}
	return ai.Quota{Limit: 10, Used: 3, Remaining: 7, Window: ai.RateLimitWindow}, nil
}

var _ AIGateway = (*stubGateway)(nil)

type stubPinger struct {
	err error
}

func (s *stubPinger) PingContext(context.Context) error {
	return s.err
}

type stubRedis struct {
	err error
}

func (s *stubRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}
