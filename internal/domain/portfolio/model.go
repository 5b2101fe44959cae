package portfolio

import "time"

// Portfolio is a user's themed public page.
type Portfolio struct {
	ID            uint
	OwnerID       uint
	OwnerUsername string
	Slug          string
	Title         string
	Headline      string
	Bio           string
	Theme         Theme
	Settings      ThemeSettings
	Published     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Profile       *Profile
}

// Profile groups the structured sections shown on a portfolio.
type Profile struct {
	Skills      []Skill
	Projects    []Project
	Experience  []Experience
	Education   []Education
	SocialLinks []SocialLink
}

// Skill is a named competency with an optional proficiency level.
type Skill struct {
	Name  string
	Level string
}

// Project is a showcased piece of work. Description is Markdown.
type Project struct {
	Title       string
	Description string
	URL         string
	Tags        []string
}

// Experience is a position held at a company.
type Experience struct {
	Company   string
	Role      string
	StartDate string
	EndDate   string
	Summary   string
}

// Education is a completed or ongoing course of study.
type Education struct {
	School    string
	Degree    string
	Field     string
	StartYear int
	EndYear   int
}

// SocialLink points at an external profile.
type SocialLink struct {
	Platform string
	URL      string
}

// CreateInput carries the fields accepted when creating a portfolio.
// An empty Slug asks the allocator to derive one from Title.
type CreateInput struct {
	Title    string
	Slug     string
	Headline string
	Bio      string
	Theme    Theme
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title    *string
	Slug     *string
	Headline *string
	Bio      *string
}
