package portfolio

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folio/app/internal/data/database"
	"folio/app/internal/domain/errs"
	domainportfolio "folio/app/internal/domain/portfolio"
)

const usersTable = "users"

// Repository persists portfolios and their profile sections using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed portfolio repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ domainportfolio.Repository = (*Repository)(nil)

// SlugExists reports whether ownerID already has a portfolio with slug, ignoring excludeID when non-zero.
func (r *Repository) SlugExists(ctx context.Context, slug string, ownerID, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&PortfolioRecord{}).
		Where("owner_id = ? AND slug = ?", ownerID, slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Limit(1).Count(&count).Error; err != nil {
		r.logError(logrus.Fields{"owner_id": ownerID, "slug": slug}, err, "checking slug")
		return false, eris.Wrapf(err, "checking slug: %s", slug)
	}

	return count > 0, nil
}

// Create inserts p and sets its ID and timestamps.
func (r *Repository) Create(ctx context.Context, p *domainportfolio.Portfolio) error {
	if p == nil {
		return eris.New("portfolio is nil")
	}

	record, err := toRecord(p)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return eris.Wrapf(domainportfolio.ErrSlugTaken, "owner %d slug %s", p.OwnerID, p.Slug)
		}
		r.logError(logrus.Fields{"owner_id": p.OwnerID, "slug": p.Slug}, err, "creating portfolio")
		return eris.Wrapf(err, "creating portfolio: %s", p.Slug)
	}

	p.ID = record.ID
	p.CreatedAt = record.CreatedAt
	p.UpdatedAt = record.UpdatedAt
	return nil
}

// Update writes every mutable column of p.
func (r *Repository) Update(ctx context.Context, p *domainportfolio.Portfolio) error {
	if p == nil || p.ID == 0 {
		return eris.New("portfolio with id is required")
	}

	settings, err := encodeSettings(p.Settings)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&PortfolioRecord{}).
		Where("id = ? AND owner_id = ?", p.ID, p.OwnerID).
		Updates(map[string]any{
			"slug":       p.Slug,
			"title":      p.Title,
			"headline":   p.Headline,
			"bio":        p.Bio,
			"theme":      string(p.Theme),
			"settings":   settings,
			"published":  p.Published,
			"updated_at": now,
		})
	if result.Error != nil {
		if database.IsUniqueViolation(result.Error) {
			return eris.Wrapf(domainportfolio.ErrSlugTaken, "owner %d slug %s", p.OwnerID, p.Slug)
		}
		r.logError(logrus.Fields{"portfolio_id": p.ID}, result.Error, "updating portfolio")
		return eris.Wrapf(result.Error, "updating portfolio: %d", p.ID)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(errs.ErrNotFound, "portfolio %d", p.ID)
	}

	p.UpdatedAt = now
	return nil
}

// Delete removes the portfolio and its sections. It reports false when ownerID has no such portfolio.
func (r *Repository) Delete(ctx context.Context, ownerID, id uint) (bool, error) {
	deleted := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&PortfolioRecord{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return deleteSections(tx, id)
	})
	if err != nil {
		r.logError(logrus.Fields{"owner_id": ownerID, "portfolio_id": id}, err, "deleting portfolio")
		return false, eris.Wrapf(err, "deleting portfolio: %d", id)
	}

	return deleted, nil
}

// GetByID returns ownerID's portfolio with id, or nil.
func (r *Repository) GetByID(ctx context.Context, ownerID, id uint) (*domainportfolio.Portfolio, error) {
	var record PortfolioRecord
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&record).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"portfolio_id": id}, err, "fetching portfolio")
		return nil, eris.Wrapf(err, "fetching portfolio: %d", id)
	}

	username, err := r.username(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return toDomain(&record, username)
}

// ListByOwner returns ownerID's portfolios, most recently updated first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uint) ([]domainportfolio.Portfolio, error) {
	var records []PortfolioRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		r.logError(logrus.Fields{"owner_id": ownerID}, err, "listing portfolios")
		return nil, eris.Wrap(err, "listing portfolios")
	}

	username, err := r.username(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	portfolios := make([]domainportfolio.Portfolio, 0, len(records))
	for i := range records {
		p, err := toDomain(&records[i], username)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, *p)
	}

	return portfolios, nil
}

// GetPublished returns the published portfolio at /p/{username}/{slug}, or nil.
func (r *Repository) GetPublished(ctx context.Context, username, slug string) (*domainportfolio.Portfolio, error) {
	var ownerIDs []uint
	err := r.db.WithContext(ctx).
		Table(usersTable).
		Where("username = ?", username).
		Limit(1).
		Pluck("id", &ownerIDs).Error
	if err != nil {
		r.logError(logrus.Fields{"username": username}, err, "resolving portfolio owner")
		return nil, eris.Wrapf(err, "resolving portfolio owner: %s", username)
	}
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	var record PortfolioRecord
	err = r.db.WithContext(ctx).
		Where("owner_id = ? AND slug = ? AND published = ?", ownerIDs[0], slug, true).
		First(&record).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"username": username, "slug": slug}, err, "fetching published portfolio")
		return nil, eris.Wrapf(err, "fetching published portfolio: %s/%s", username, slug)
	}

	return toDomain(&record, username)
}

// LoadProfile returns every profile section of portfolioID in display order.
func (r *Repository) LoadProfile(ctx context.Context, portfolioID uint) (*domainportfolio.Profile, error) {
	db := r.db.WithContext(ctx)

	var (
		skills      []SkillRecord
		projects    []ProjectRecord
		experiences []ExperienceRecord
		educations  []EducationRecord
		links       []SocialLinkRecord
	)

	loads := []struct {
		name string
		dest any
	}{
		{"skills", &skills},
		{"projects", &projects},
		{"experiences", &experiences},
		{"educations", &educations},
		{"social links", &links},
	}
	for _, load := range loads {
		if err := db.Where("portfolio_id = ?", portfolioID).Order("position ASC").Find(load.dest).Error; err != nil {
			r.logError(logrus.Fields{"portfolio_id": portfolioID}, err, "loading "+load.name)
			return nil, eris.Wrapf(err, "loading %s for portfolio %d", load.name, portfolioID)
		}
	}

	profile := &domainportfolio.Profile{
		Skills:      make([]domainportfolio.Skill, 0, len(skills)),
		Projects:    make([]domainportfolio.Project, 0, len(projects)),
		Experience:  make([]domainportfolio.Experience, 0, len(experiences)),
		Education:   make([]domainportfolio.Education, 0, len(educations)),
		SocialLinks: make([]domainportfolio.SocialLink, 0, len(links)),
	}
	for _, skill := range skills {
		profile.Skills = append(profile.Skills, domainportfolio.Skill{Name: skill.Name, Level: skill.Level})
	}
	for _, project := range projects {
		var tags []string
		if len(project.Tags) > 0 {
			if err := json.Unmarshal(project.Tags, &tags); err != nil {
				return nil, eris.Wrapf(err, "decoding tags for project %d", project.ID)
			}
		}
		profile.Projects = append(profile.Projects, domainportfolio.Project{
			Title:       project.Title,
			Description: project.Description,
			URL:         project.URL,
			Tags:        tags,
		})
	}
	for _, entry := range experiences {
		profile.Experience = append(profile.Experience, domainportfolio.Experience{
			Company:   entry.Company,
			Role:      entry.Role,
			StartDate: entry.StartDate,
			EndDate:   entry.EndDate,
			Summary:   entry.Summary,
		})
	}
	for _, entry := range educations {
		profile.Education = append(profile.Education, domainportfolio.Education{
			School:    entry.School,
			Degree:    entry.Degree,
			Field:     entry.Field,
			StartYear: entry.StartYear,
			EndYear:   entry.EndYear,
		})
	}
	for _, link := range links {
		profile.SocialLinks = append(profile.SocialLinks, domainportfolio.SocialLink{Platform: link.Platform, URL: link.URL})
	}

	return profile, nil
}

// ReplaceProfile swaps every profile section of portfolioID in one transaction.
func (r *Repository) ReplaceProfile(ctx context.Context, portfolioID uint, profile domainportfolio.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSections(tx, portfolioID); err != nil {
			return err
		}

		if len(profile.Skills) > 0 {
			records := make([]SkillRecord, 0, len(profile.Skills))
			for i, skill := range profile.Skills {
				records = append(records, SkillRecord{PortfolioID: portfolioID, Name: skill.Name, Level: skill.Level, Position: i})
			}
			if err := tx.Create(&records).Error; err != nil {
				return eris.Wrap(err, "inserting skills")
			}
		}

		if len(profile.Projects) > 0 {
			records := make([]ProjectRecord, 0, len(profile.Projects))
			for i, project := range profile.Projects {
				tags, err := encodeJSON(project.Tags)
				if err != nil {
					return err
				}
				records = append(records, ProjectRecord{
					PortfolioID: portfolioID,
					Title:       project.Title,
					Description: project.Description,
					URL:         project.URL,
					Tags:        tags,
					Position:    i,
				})
			}
			if err := tx.Create(&records).Error; err != nil {
				return eris.Wrap(err, "inserting projects")
			}
		}

		if len(profile.Experience) > 0 {
			records := make([]ExperienceRecord, 0, len(profile.Experience))
			for i, entry := range profile.Experience {
				records = append(records, ExperienceRecord{
					PortfolioID: portfolioID,
					Company:     entry.Company,
					Role:        entry.Role,
					StartDate:   entry.StartDate,
					EndDate:     entry.EndDate,
					Summary:     entry.Summary,
					Position:    i,
				})
			}
			if err := tx.Create(&records).Error; err != nil {
				return eris.Wrap(err, "inserting experience")
			}
		}

		if len(profile.Education) > 0 {
			records := make([]EducationRecord, 0, len(profile.Education))
			for i, entry := range profile.Education {
				records = append(records, EducationRecord{
					PortfolioID: portfolioID,
					School:      entry.School,
					Degree:      entry.Degree,
					Field:       entry.Field,
					StartYear:   entry.StartYear,
					EndYear:     entry.EndYear,
					Position:    i,
				})
			}
			if err := tx.Create(&records).Error; err != nil {
				return eris.Wrap(err, "inserting education")
			}
		}

		if len(profile.SocialLinks) > 0 {
			records := make([]SocialLinkRecord, 0, len(profile.SocialLinks))
			for i, link := range profile.SocialLinks {
				records = append(records, SocialLinkRecord{PortfolioID: portfolioID, Platform: link.Platform, URL: link.URL, Position: i})
			}
			if err := tx.Create(&records).Error; err != nil {
				return eris.Wrap(err, "inserting social links")
			}
		}

		return tx.Model(&PortfolioRecord{}).
			Where("id = ?", portfolioID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		r.logError(logrus.Fields{"portfolio_id": portfolioID}, err, "replacing profile")
		return eris.Wrapf(err, "replacing profile for portfolio %d", portfolioID)
	}

	return nil
}

func (r *Repository) username(ctx context.Context, ownerID uint) (string, error) {
	var usernames []string
	err := r.db.WithContext(ctx).
		Table(usersTable).
		Where("id = ?", ownerID).
		Limit(1).
		Pluck("username", &usernames).Error
	if err != nil {
		r.logError(logrus.Fields{"owner_id": ownerID}, err, "resolving owner username")
		return "", eris.Wrapf(err, "resolving owner username: %d", ownerID)
	}
	if len(usernames) == 0 {
		return "", nil
	}
	return usernames[0], nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func deleteSections(tx *gorm.DB, portfolioID uint) error {
	for _, model := range []any{&SkillRecord{}, &ProjectRecord{}, &ExperienceRecord{}, &EducationRecord{}, &SocialLinkRecord{}} {
		if err := tx.Where("portfolio_id = ?", portfolioID).Delete(model).Error; err != nil {
			return eris.Wrap(err, "deleting profile sections")
		}
	}
	return nil
}

func toRecord(p *domainportfolio.Portfolio) (*PortfolioRecord, error) {
	settings, err := encodeSettings(p.Settings)
	if err != nil {
		return nil, err
	}

	return &PortfolioRecord{
		OwnerID:   p.OwnerID,
		Slug:      strings.TrimSpace(p.Slug),
		Title:     p.Title,
		Headline:  p.Headline,
		Bio:       p.Bio,
		Theme:     string(p.Theme),
		Settings:  settings,
		Published: p.Published,
	}, nil
}

func toDomain(record *PortfolioRecord, username string) (*domainportfolio.Portfolio, error) {
	var settings domainportfolio.ThemeSettings
	if len(record.Settings) > 0 {
		if err := json.Unmarshal(record.Settings, &settings); err != nil {
			return nil, eris.Wrapf(err, "decoding settings for portfolio %d", record.ID)
		}
	}

	return &domainportfolio.Portfolio{
		ID:            record.ID,
		OwnerID:       record.OwnerID,
		OwnerUsername: username,
		Slug:          record.Slug,
		Title:         record.Title,
		Headline:      record.Headline,
		Bio:           record.Bio,
		Theme:         domainportfolio.Theme(record.Theme),
		Settings:      settings,
		Published:     record.Published,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}

func encodeSettings(settings domainportfolio.ThemeSettings) (datatypes.JSON, error) {
	return encodeJSON(settings)
}

func encodeJSON(value any) (datatypes.JSON, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrap(err, "encoding json column")
	}
	return datatypes.JSON(encoded), nil
}
