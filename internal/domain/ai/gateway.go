package ai

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/account"
	"folio/app/internal/domain/errs"
	"folio/app/internal/domain/llm"
	"folio/app/internal/platform/metrics"
)

const (
	// DefaultHourlyLimit is the number of accepted requests per caller per RateLimitWindow.
	DefaultHourlyLimit = 10
	// MaxContentLength bounds free-text inputs, in characters.
	MaxContentLength = 5000

	maxBioSkills       = 50
	maxJobTitleLength  = 200
	maxCurrentSkills   = 100
	enhanceTemperature = 0.7
	enhanceMaxTokens   = 1000
	bioTemperature     = 0.7
	bioMaxTokens       = 500
	skillsTemperature  = 0.5
	skillsMaxTokens    = 300
)

// Operation names used for metrics and logs.
const (
	OperationEnhance = "enhance"
	OperationBio     = "bio"
	OperationSkills  = "skills"
)

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	Generator   llm.TextGenerator
	Usage       UsageStore
	Model       string
	HourlyLimit int
	Clock       func() time.Time
	Logger      *logrus.Logger
	Hub         *sentry.Hub
	Metrics     *metrics.Recorder
}

// Gateway runs caller-scoped, rate-limited text generation for portfolio content.
// It keeps no in-process state: the count-then-record sequence is not atomic, so
// concurrent requests from one caller can briefly exceed the hourly limit.
type Gateway struct {
	generator llm.TextGenerator
	usage     UsageStore
	model     string
	limit     int
	now       func() time.Time
	logger    *logrus.Logger
	hub       *sentry.Hub
	metrics   *metrics.Recorder
}

// NewGateway validates opts and builds a Gateway.
func NewGateway(opts GatewayOptions) (*Gateway, error) {
	if opts.Generator == nil {
		return nil, eris.New("text generator is required")
	}
	if opts.Usage == nil {
		return nil, eris.New("usage store is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("model is required")
	}

	limit := opts.HourlyLimit
	if limit <= 0 {
		limit = DefaultHourlyLimit
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Gateway{
		generator: opts.Generator,
		usage:     opts.Usage,
		model:     model,
		limit:     limit,
		now:       clock,
		logger:    opts.Logger,
		hub:       opts.Hub,
		metrics:   opts.Metrics,
	}, nil
}

type dispatch struct {
	operation   string
	requestType string
	prompt      Prompt
	temperature float64
	maxTokens   int
}

// Enhance rewrites req.Content according to req.Type and req.Tone.
func (g *Gateway) Enhance(ctx context.Context, req EnhancementRequest) (string, error) {
	identity, err := g.identify(ctx, OperationEnhance)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(req.Content)
	kind := EnhancementType(strings.ToLower(strings.TrimSpace(string(req.Type))))
	tone := Tone(strings.ToLower(strings.TrimSpace(string(req.Tone))))

	v := &errs.ValidationError{}
	checkText(v, "content", content, true)
	if !kind.Valid() {
		v.Add("type", "must be one of improve, proofread, simplify, expand, keywords", req.Type)
	}
	if !tone.Valid() {
		v.Add("tone", "must be one of professional, conversational, technical, enthusiastic, authoritative", req.Tone)
	}
	if err := g.rejectInvalid(OperationEnhance, v); err != nil {
		return "", err
	}

	prompt, err := BuildEnhancementPrompt(content, kind, tone)
	if err != nil {
		return "", eris.Wrap(err, "building enhancement prompt")
	}

	text, err := g.generate(ctx, identity, dispatch{
		operation:   OperationEnhance,
		requestType: "enhance_" + string(kind),
		prompt:      prompt,
		temperature: enhanceTemperature,
		maxTokens:   enhanceMaxTokens,
	})
	if err != nil {
		return "", err
	}

	g.record(ctx, identity, OperationEnhance, "enhance_"+string(kind), prompt, text)
	return text, nil
}

// GenerateBio writes a narrative bio from the caller's skills, experience and education.
func (g *Gateway) GenerateBio(ctx context.Context, req BioRequest) (string, error) {
	identity, err := g.identify(ctx, OperationBio)
	if err != nil {
		return "", err
	}

	normalized := BioRequest{
		Skills:     trimAll(req.Skills),
		Experience: strings.TrimSpace(req.Experience),
		Education:  strings.TrimSpace(req.Education),
		Tone:       Tone(strings.ToLower(strings.TrimSpace(string(req.Tone)))),
	}

	v := &errs.ValidationError{}
	switch {
	case len(normalized.Skills) == 0:
		v.Add("skills", "at least one skill is required", req.Skills)
	case len(normalized.Skills) > maxBioSkills:
		v.Add("skills", "at most 50 skills are allowed", len(normalized.Skills))
	}
	for _, skill := range normalized.Skills {
		if utf8.RuneCountInString(skill) > maxSkillNameLength {
			v.Add("skills", "each skill must be at most 100 characters", skill)
			break
		}
	}
	checkText(v, "experience", normalized.Experience, false)
	checkText(v, "education", normalized.Education, false)
	if !normalized.Tone.Valid() {
		v.Add("tone", "must be one of professional, conversational, technical, enthusiastic, authoritative", req.Tone)
	}
	if err := g.rejectInvalid(OperationBio, v); err != nil {
		return "", err
	}

	prompt, err := BuildBioPrompt(normalized)
	if err != nil {
		return "", eris.Wrap(err, "building bio prompt")
	}

	text, err := g.generate(ctx, identity, dispatch{
		operation:   OperationBio,
		requestType: "generate_bio",
		prompt:      prompt,
		temperature: bioTemperature,
		maxTokens:   bioMaxTokens,
	})
	if err != nil {
		return "", err
	}

	g.record(ctx, identity, OperationBio, "generate_bio", prompt, text)
	return text, nil
}

// RecommendSkills suggests skills for req.JobTitle that the caller does not list yet.
func (g *Gateway) RecommendSkills(ctx context.Context, req SkillRecommendationRequest) ([]string, error) {
	identity, err := g.identify(ctx, OperationSkills)
	if err != nil {
		return nil, err
	}

	normalized := SkillRecommendationRequest{
		JobTitle:      strings.TrimSpace(req.JobTitle),
		CurrentSkills: trimAll(req.CurrentSkills),
		Experience:    strings.TrimSpace(req.Experience),
	}

	v := &errs.ValidationError{}
	titleLength := utf8.RuneCountInString(normalized.JobTitle)
	switch {
	case titleLength == 0:
		v.Add("job_title", "is required", req.JobTitle)
	case titleLength > maxJobTitleLength:
		v.Add("job_title", "must be at most 200 characters", nil)
	}
	if len(normalized.CurrentSkills) > maxCurrentSkills {
		v.Add("current_skills", "at most 100 skills are allowed", len(normalized.CurrentSkills))
	}
	checkText(v, "experience", normalized.Experience, false)
	if err := g.rejectInvalid(OperationSkills, v); err != nil {
		return nil, err
	}

	prompt := BuildSkillsPrompt(normalized)
	text, err := g.generate(ctx, identity, dispatch{
		operation:   OperationSkills,
		requestType: "recommend_skills",
		prompt:      prompt,
		temperature: skillsTemperature,
		maxTokens:   skillsMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	skills := ParseSkillList(text, normalized.CurrentSkills)
	if len(skills) == 0 {
		g.metrics.ObserveAIRequest(OperationSkills, metrics.OutcomeGenerationError)
		g.logWarn(logrus.Fields{"caller_id": identity.UserID, "operation": OperationSkills}, "no skills could be parsed from reply")
		return nil, eris.Wrap(emptyOutput(), "parsing skill recommendations")
	}

	g.record(ctx, identity, OperationSkills, "recommend_skills", prompt, strings.Join(skills, "\n"))
	return skills, nil
}

// Remaining reports the caller's usage in the trailing window.
func (g *Gateway) Remaining(ctx context.Context) (Quota, error) {
	identity, ok := account.IdentityFromContext(ctx)
	if !ok {
		return Quota{}, errs.ErrUnauthorized
	}

	used, err := g.countRecent(ctx, identity.UserID)
	if err != nil {
		return Quota{}, err
	}

	remaining := g.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Quota{Limit: g.limit, Used: used, Remaining: remaining, Window: RateLimitWindow}, nil
}

func (g *Gateway) identify(ctx context.Context, operation string) (account.Identity, error) {
	identity, ok := account.IdentityFromContext(ctx)
	if !ok {
		g.metrics.ObserveAIRequest(operation, metrics.OutcomeUnauthorized)
		return account.Identity{}, errs.ErrUnauthorized
	}
	return identity, nil
}

func (g *Gateway) rejectInvalid(operation string, v *errs.ValidationError) error {
	if err := v.OrNil(); err != nil {
		g.metrics.ObserveAIRequest(operation, metrics.OutcomeValidationError)
		return err
	}
	return nil
}

// generate checks the caller's quota, dispatches d and returns the trimmed reply.
func (g *Gateway) generate(ctx context.Context, identity account.Identity, d dispatch) (string, error) {
	fields := logrus.Fields{"caller_id": identity.UserID, "operation": d.operation}

	used, err := g.countRecent(ctx, identity.UserID)
	if err != nil {
		g.metrics.ObserveAIRequest(d.operation, metrics.OutcomeStoreError)
		g.recordError(fields, err, "counting recent ai requests")
		return "", err
	}
	if used >= g.limit {
		g.metrics.ObserveAIRequest(d.operation, metrics.OutcomeRateLimited)
		g.logInfo(fields, "ai request limit reached")
		return "", &RateLimitError{Limit: g.limit, Used: used, RetryAfter: RateLimitWindow}
	}

	started := time.Now()
	text, err := g.generator.GenerateText(ctx, llm.TextRequest{
		SystemPrompt: d.prompt.System,
		UserPrompt:   d.prompt.User,
		Model:        g.model,
		Temperature:  d.temperature,
		MaxTokens:    d.maxTokens,
	})
	g.metrics.ObserveUpstream(d.operation, time.Since(started))

	if err != nil {
		genErr := fromUpstream(err)
		g.metrics.ObserveAIRequest(d.operation, metrics.OutcomeGenerationError)
		fields["kind"] = genErr.Kind
		g.recordError(fields, err, "text generation failed")
		return "", eris.Wrap(genErr, "generating "+d.requestType)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		g.metrics.ObserveAIRequest(d.operation, metrics.OutcomeGenerationError)
		g.logWarn(fields, "text generation returned empty output")
		return "", eris.Wrap(emptyOutput(), "generating "+d.requestType)
	}

	return text, nil
}

// record appends a usage entry. Failures are reported but never returned.
func (g *Gateway) record(ctx context.Context, identity account.Identity, operation, requestType string, prompt Prompt, output string) {
	g.metrics.ObserveAIRequest(operation, metrics.OutcomeSuccess)

	entry := UsageEntry{
		CallerID:       identity.UserID,
		RequestType:    requestType,
		PromptLength:   utf8.RuneCountInString(prompt.User),
		ResponseLength: utf8.RuneCountInString(output),
		Model:          g.model,
		CreatedAt:      g.now().UTC(),
	}

	if err := g.usage.RecordUsage(ctx, entry); err != nil {
		g.metrics.UsageLogFailed()
		g.recordError(logrus.Fields{
			"caller_id":    identity.UserID,
			"request_type": requestType,
		}, errs.Persistence("recording ai usage", err), "recording ai usage failed")
	}
}

func (g *Gateway) countRecent(ctx context.Context, callerID uint) (int, error) {
	since := g.now().Add(-RateLimitWindow).UTC()
	count, err := g.usage.CountRecentRequests(ctx, callerID, since)
	if err != nil {
		return 0, eris.Wrap(errs.Persistence("counting recent ai requests", err), "checking ai quota")
	}
	return int(count), nil
}

func checkText(v *errs.ValidationError, field, value string, required bool) {
	length := utf8.RuneCountInString(value)
	switch {
	case required && length == 0:
		v.Add(field, "is required", value)
	case length > MaxContentLength:
		v.Add(field, "must be at most 5000 characters", nil)
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (g *Gateway) logInfo(fields logrus.Fields, message string) {
	if g.logger == nil {
		return
	}
	g.logger.WithFields(fields).Info(message)
}

func (g *Gateway) logWarn(fields logrus.Fields, message string) {
	if g.logger == nil {
		return
	}
	g.logger.WithFields(fields).Warn(message)
}

func (g *Gateway) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if g.logger != nil {
		entry := g.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if g.hub != nil {
		g.hub.CaptureException(err)
	}
}
