package portfolio

import (
	"time"

	"gorm.io/datatypes"
)

// PortfolioRecord is a user's portfolio. Slugs are unique per owner.
type PortfolioRecord struct {
	ID        uint   `gorm:"primaryKey"`
	OwnerID   uint   `gorm:"not null;uniqueIndex:idx_portfolios_owner_slug,priority:1;index"`
	Slug      string `gorm:"size:64;not null;uniqueIndex:idx_portfolios_owner_slug,priority:2"`
	Title     string `gorm:"size:120;not null"`
	Headline  string `gorm:"size:160"`
	Bio       string `gorm:"type:text"`
	Theme     string `gorm:"size:32;not null"`
	Settings  datatypes.JSON
	Published bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName defines the table name for the portfolio model.
func (PortfolioRecord) TableName() string {
	return "portfolios"
}

// SkillRecord is one entry of a portfolio's skills section.
type SkillRecord struct {
	ID          uint   `gorm:"primaryKey"`
	PortfolioID uint   `gorm:"not null;index"`
	Name        string `gorm:"size:100;not null"`
	Level       string `gorm:"size:32"`
	Position    int    `gorm:"not null"`
}

// TableName defines the table name for the skill model.
func (SkillRecord) TableName() string {
	return "portfolio_skills"
}

// ProjectRecord is one showcased project. Description holds Markdown.
type ProjectRecord struct {
	ID          uint   `gorm:"primaryKey"`
	PortfolioID uint   `gorm:"not null;index"`
	Title       string `gorm:"size:120;not null"`
	Description string `gorm:"type:text"`
	URL         string `gorm:"size:2048"`
	Tags        datatypes.JSON
	Position    int `gorm:"not null"`
}

// TableName defines the table name for the project model.
func (ProjectRecord) TableName() string {
	return "portfolio_projects"
}

// ExperienceRecord is one position in the experience section.
type ExperienceRecord struct {
	ID          uint   `gorm:"primaryKey"`
	PortfolioID uint   `gorm:"not null;index"`
	Company     string `gorm:"size:100;not null"`
	Role        string `gorm:"size:100;not null"`
	StartDate   string `gorm:"size:32"`
	EndDate     string `gorm:"size:32"`
	Summary     string `gorm:"type:text"`
	Position    int    `gorm:"not null"`
}

// TableName defines the table name for the experience model.
func (ExperienceRecord) TableName() string {
	return "portfolio_experiences"
}

// EducationRecord is one entry in the education section.
type EducationRecord struct {
	ID          uint   `gorm:"primaryKey"`
	PortfolioID uint   `gorm:"not null;index"`
	School      string `gorm:"size:100;not null"`
	Degree      string `gorm:"size:100"`
	Field       string `gorm:"size:100"`
	StartYear   int
	EndYear     int
	Position    int `gorm:"not null"`
}

// TableName defines the table name for the education model.
func (EducationRecord) TableName() string {
	return "portfolio_educations"
}

// SocialLinkRecord points at an external profile.
type SocialLinkRecord struct {
	ID          uint   `gorm:"primaryKey"`
	PortfolioID uint   `gorm:"not null;index"`
	Platform    string `gorm:"size:40;not null"`
	URL         string `gorm:"size:2048;not null"`
	Position    int    `gorm:"not null"`
}

// TableName defines the table name for the social link model.
func (SocialLinkRecord) TableName() string {
	return "portfolio_social_links"
}

// Models lists every record type owned by this package, in migration order.
func Models() []any {
	return []any{
		&PortfolioRecord{},
		&SkillRecord{},
		&ProjectRecord{},
		&ExperienceRecord{},
		&EducationRecord{},
		&SocialLinkRecord{},
	}
}
