package portfolio

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"folio/app/internal/domain/errs"
)

// maxInsertAttempts bounds re-allocation after a concurrent writer claimed the same slug.
const maxInsertAttempts = 3

// Service defines portfolio operations scoped to an owner.
type Service interface {
	Create(ctx context.Context, ownerID uint, input CreateInput) (*Portfolio, error)
	Update(ctx context.Context, ownerID, id uint, input UpdateInput) (*Portfolio, error)
	UpdateTheme(ctx context.Context, ownerID, id uint, theme string, settings ThemeSettings) (*Portfolio, error)
	ReplaceProfile(ctx context.Context, ownerID, id uint, profile Profile) (*Portfolio, error)
	SetPublished(ctx context.Context, ownerID, id uint, published bool) (*Portfolio, error)
	Get(ctx context.Context, ownerID, id uint) (*Portfolio, error)
	List(ctx context.Context, ownerID uint) ([]Portfolio, error)
	Delete(ctx context.Context, ownerID, id uint) error
	PublicPage(ctx context.Context, username, slug string) (*Portfolio, error)
	SuggestSlug(ctx context.Context, ownerID uint, title string, excludeID uint) (string, error)
	SlugAvailable(ctx context.Context, ownerID uint, slug string, excludeID uint) (bool, error)
}

type service struct {
	repo      Repository
	allocator *SlugAllocator
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the portfolio service with its dependencies.
func NewService(repo Repository, allocator *SlugAllocator, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("portfolio repository is required")
	}
	if allocator == nil {
		return nil, eris.New("slug allocator is required")
	}

	return &service{
		repo:      repo,
		allocator: allocator,
		logger:    logger,
		sentryHub: hub,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uint, input CreateInput) (*Portfolio, error) {
	if ownerID == 0 {
		return nil, errs.ErrUnauthorized
	}

	v := &errs.ValidationError{}
	title := strings.TrimSpace(input.Title)
	headline := strings.TrimSpace(input.Headline)
	bio := strings.TrimSpace(input.Bio)
	explicitSlug := strings.TrimSpace(input.Slug)

	checkLength(v, "title", title, 1, maxTitleLength)
	checkLength(v, "headline", headline, 0, maxHeadlineLength)
	checkLength(v, "bio", bio, 0, maxBioLength)

	theme, ok := ParseTheme(string(input.Theme))
	if !ok {
		v.Add("theme", "is not a supported theme", input.Theme)
	}
	if explicitSlug != "" {
		if err := ValidateSlug(explicitSlug); err != nil {
			var slugErr *errs.ValidationError
			if eris.As(err, &slugErr) {
				v.Fields = append(v.Fields, slugErr.Fields...)
			}
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	p := &Portfolio{
		OwnerID:  ownerID,
		Title:    title,
		Headline: headline,
		Bio:      bio,
		Theme:    theme,
	}

	for attempt := 1; ; attempt++ {
		slug, err := s.resolveSlug(ctx, ownerID, 0, title, explicitSlug)
		if err != nil {
			return nil, err
		}
		p.Slug = slug

		err = s.repo.Create(ctx, p)
		if err == nil {
			return p, nil
		}

		if !eris.Is(err, ErrSlugTaken) {
			s.recordError(logrus.Fields{"owner_id": ownerID, "slug": slug}, err, "creating portfolio")
			return nil, eris.Wrap(errs.Persistence("creating portfolio", err), "creating portfolio")
		}
		if explicitSlug != "" || attempt >= maxInsertAttempts {
			return nil, eris.Wrap(err, "creating portfolio")
		}

		s.logWarn(logrus.Fields{"owner_id": ownerID, "slug": slug, "attempt": attempt}, "slug claimed concurrently, re-allocating")
	}
}

func (s *service) Update(ctx context.Context, ownerID, id uint, input UpdateInput) (*Portfolio, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	v := &errs.ValidationError{}
	next := *current
	titleChanged := false
	explicitSlug := ""

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		checkLength(v, "title", title, 1, maxTitleLength)
		titleChanged = title != current.Title
		next.Title = title
	}
	if input.Headline != nil {
		next.Headline = strings.TrimSpace(*input.Headline)
		checkLength(v, "headline", next.Headline, 0, maxHeadlineLength)
	}
	if input.Bio != nil {
		next.Bio = strings.TrimSpace(*input.Bio)
		checkLength(v, "bio", next.Bio, 0, maxBioLength)
	}
	if input.Slug != nil {
		explicitSlug = strings.TrimSpace(*input.Slug)
		if explicitSlug != "" {
			if err := ValidateSlug(explicitSlug); err != nil {
				var slugErr *errs.ValidationError
				if eris.As(err, &slugErr) {
					v.Fields = append(v.Fields, slugErr.Fields...)
				}
			}
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	reassign := (explicitSlug != "" && explicitSlug != current.Slug) || (explicitSlug == "" && titleChanged)

	for attempt := 1; ; attempt++ {
		if reassign {
			slug, err := s.resolveSlug(ctx, ownerID, id, next.Title, explicitSlug)
			if err != nil {
				return nil, err
			}
			next.Slug = slug
		}

		err := s.repo.Update(ctx, &next)
		if err == nil {
			return &next, nil
		}

		if !eris.Is(err, ErrSlugTaken) {
			s.recordError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id, "slug": next.Slug}, err, "updating portfolio")
			return nil, eris.Wrap(errs.Persistence("updating portfolio", err), "updating portfolio")
		}
		if !reassign || explicitSlug != "" || attempt >= maxInsertAttempts {
			return nil, eris.Wrap(err, "updating portfolio")
		}

		s.logWarn(logrus.Fields{"owner_id": ownerID, "portfolio_id": id, "slug": next.Slug, "attempt": attempt}, "slug claimed concurrently, re-allocating")
	}
}

func (s *service) UpdateTheme(ctx context.Context, ownerID, id uint, themeName string, settings ThemeSettings) (*Portfolio, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	v := &errs.ValidationError{}
	theme := current.Theme
	if strings.TrimSpace(themeName) != "" {
		parsed, ok := ParseTheme(themeName)
		if !ok {
			v.Add("theme", "is not a supported theme", themeName)
		}
		theme = parsed
	}
	settings = normalizeSettings(settings, v)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	next := *current
	next.Theme = theme
	next.Settings = current.Settings.Merge(settings)

	if err := s.repo.Update(ctx, &next); err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id}, err, "updating portfolio theme")
		return nil, eris.Wrap(errs.Persistence("updating theme", err), "updating portfolio theme")
	}

	return &next, nil
}

func (s *service) ReplaceProfile(ctx context.Context, ownerID, id uint, profile Profile) (*Portfolio, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeProfile(profile)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceProfile(ctx, current.ID, normalized); err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id}, err, "replacing portfolio profile")
		return nil, eris.Wrap(errs.Persistence("replacing profile", err), "replacing portfolio profile")
	}

	current.Profile = &normalized
	return current, nil
}

func (s *service) SetPublished(ctx context.Context, ownerID, id uint, published bool) (*Portfolio, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if current.Published == published {
		return current, nil
	}

	next := *current
	next.Published = published
	if err := s.repo.Update(ctx, &next); err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id}, err, "changing publish state")
		return nil, eris.Wrap(errs.Persistence("changing publish state", err), "changing publish state")
	}

	return &next, nil
}

func (s *service) Get(ctx context.Context, ownerID, id uint) (*Portfolio, error) {
	p, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.LoadProfile(ctx, p.ID)
	if err != nil {
		s.recordError(logrus.Fields{"portfolio_id": id}, err, "loading portfolio profile")
		return nil, eris.Wrap(errs.Persistence("loading profile", err), "loading portfolio")
	}
	p.Profile = profile

	return p, nil
}

func (s *service) List(ctx context.Context, ownerID uint) ([]Portfolio, error) {
	if ownerID == 0 {
		return nil, errs.ErrUnauthorized
	}

	portfolios, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID}, err, "listing portfolios")
		return nil, eris.Wrap(errs.Persistence("listing portfolios", err), "listing portfolios")
	}

	return portfolios, nil
}

func (s *service) Delete(ctx context.Context, ownerID, id uint) error {
	if ownerID == 0 {
		return errs.ErrUnauthorized
	}

	deleted, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id}, err, "deleting portfolio")
		return eris.Wrap(errs.Persistence("deleting portfolio", err), "deleting portfolio")
	}
	if !deleted {
		return eris.Wrapf(errs.ErrNotFound, "portfolio %d", id)
	}

	return nil
}

func (s *service) PublicPage(ctx context.Context, username, slug string) (*Portfolio, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	slug = strings.ToLower(strings.TrimSpace(slug))
	if username == "" || slug == "" {
		return nil, eris.Wrap(errs.ErrNotFound, "public portfolio")
	}

	p, err := s.repo.GetPublished(ctx, username, slug)
	if err != nil {
		s.recordError(logrus.Fields{"username": username, "slug": slug}, err, "loading public portfolio")
		return nil, eris.Wrap(errs.Persistence("loading public portfolio", err), "loading public portfolio")
	}
	if p == nil {
		return nil, eris.Wrapf(errs.ErrNotFound, "public portfolio %s/%s", username, slug)
	}

	profile, err := s.repo.LoadProfile(ctx, p.ID)
	if err != nil {
		s.recordError(logrus.Fields{"portfolio_id": p.ID}, err, "loading public profile")
		return nil, eris.Wrap(errs.Persistence("loading profile", err), "loading public portfolio")
	}
	p.Profile = profile

	return p, nil
}

func (s *service) SuggestSlug(ctx context.Context, ownerID uint, title string, excludeID uint) (string, error) {
	if ownerID == 0 {
		return "", errs.ErrUnauthorized
	}
	if strings.TrimSpace(title) == "" {
		return "", errs.Invalid("title", "is required", title)
	}

	return s.allocator.Allocate(ctx, title, ownerID, excludeID)
}

func (s *service) SlugAvailable(ctx context.Context, ownerID uint, slug string, excludeID uint) (bool, error) {
	if ownerID == 0 {
		return false, errs.ErrUnauthorized
	}
	slug = strings.TrimSpace(slug)
	if err := ValidateSlug(slug); err != nil {
		return false, err
	}

	return s.allocator.IsAvailable(ctx, slug, ownerID, excludeID)
}

// resolveSlug validates an explicit slug's availability or allocates one from title.
func (s *service) resolveSlug(ctx context.Context, ownerID, excludeID uint, title, explicit string) (string, error) {
	if explicit == "" {
		slug, err := s.allocator.Allocate(ctx, title, ownerID, excludeID)
		if err != nil {
			s.recordError(logrus.Fields{"owner_id": ownerID, "title": title}, err, "allocating slug")
			return "", eris.Wrap(err, "allocating slug")
		}
		return slug, nil
	}

	available, err := s.allocator.IsAvailable(ctx, explicit, ownerID, excludeID)
	if err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID, "slug": explicit}, err, "checking slug availability")
		return "", eris.Wrap(err, "checking slug availability")
	}
	if !available {
		return "", eris.Wrapf(ErrSlugTaken, "slug %s", explicit)
	}
	return explicit, nil
}

func (s *service) load(ctx context.Context, ownerID, id uint) (*Portfolio, error) {
	if ownerID == 0 {
		return nil, errs.ErrUnauthorized
	}

	p, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		s.recordError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id}, err, "loading portfolio")
		return nil, eris.Wrap(errs.Persistence("loading portfolio", err), "loading portfolio")
	}
	if p == nil {
		return nil, eris.Wrapf(errs.ErrNotFound, "portfolio %d", id)
	}

	return p, nil
}

func (s *service) logWarn(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(fields).Warn(message)
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
