package portfolio

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"folio/app/internal/domain/errs"
)

const (
	maxTitleLength       = 120
	maxHeadlineLength    = 160
	maxBioLength         = 5000
	maxDescriptionLength = 5000
	maxNameLength        = 100
	maxSkills            = 100
	maxProjects          = 50
	maxEntries           = 50
	maxTags              = 20
	maxSocialLinks       = 20
)

var skillLevels = map[string]struct{}{
	"":             {},
	"beginner":     {},
	"intermediate": {},
	"advanced":     {},
	"expert":       {},
}

func checkLength(v *errs.ValidationError, field, value string, minLen, maxLen int) {
	length := utf8.RuneCountInString(value)
	switch {
	case length < minLen && minLen == 1:
		v.Add(field, "is required", value)
	case length < minLen:
		v.Add(field, fmt.Sprintf("must be at least %d characters", minLen), value)
	case length > maxLen:
		v.Add(field, fmt.Sprintf("must be at most %d characters", maxLen), nil)
	}
}

func checkURL(v *errs.ValidationError, field, raw string, required bool) {
	if raw == "" {
		if required {
			v.Add(field, "is required", raw)
		}
		return
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		v.Add(field, "must be an http or https URL", raw)
	}
}

func normalizeProfile(profile Profile) (Profile, error) {
	v := &errs.ValidationError{}
	out := Profile{
		Skills:      make([]Skill, 0, len(profile.Skills)),
		Projects:    make([]Project, 0, len(profile.Projects)),
		Experience:  make([]Experience, 0, len(profile.Experience)),
		Education:   make([]Education, 0, len(profile.Education)),
		SocialLinks: make([]SocialLink, 0, len(profile.SocialLinks)),
	}

	if len(profile.Skills) > maxSkills {
		v.Add("skills", fmt.Sprintf("at most %d skills are allowed", maxSkills), len(profile.Skills))
	}
	seenSkills := make(map[string]struct{}, len(profile.Skills))
	for i, skill := range profile.Skills {
		field := fmt.Sprintf("skills[%d]", i)
		name := strings.TrimSpace(skill.Name)
		level := strings.ToLower(strings.TrimSpace(skill.Level))
		checkLength(v, field+".name", name, 1, maxNameLength)
		if _, ok := skillLevels[level]; !ok {
			v.Add(field+".level", "must be beginner, intermediate, advanced or expert", skill.Level)
		}
		key := strings.ToLower(name)
		if _, dup := seenSkills[key]; dup {
			continue
		}
		seenSkills[key] = struct{}{}
		out.Skills = append(out.Skills, Skill{Name: name, Level: level})
	}

	if len(profile.Projects) > maxProjects {
		v.Add("projects", fmt.Sprintf("at most %d projects are allowed", maxProjects), len(profile.Projects))
	}
	for i, project := range profile.Projects {
		field := fmt.Sprintf("projects[%d]", i)
		normalized := Project{
			Title:       strings.TrimSpace(project.Title),
			Description: strings.TrimSpace(project.Description),
			URL:         strings.TrimSpace(project.URL),
		}
		checkLength(v, field+".title", normalized.Title, 1, maxTitleLength)
		checkLength(v, field+".description", normalized.Description, 0, maxDescriptionLength)
		checkURL(v, field+".url", normalized.URL, false)
		if len(project.Tags) > maxTags {
			v.Add(field+".tags", fmt.Sprintf("at most %d tags are allowed", maxTags), len(project.Tags))
		}
		for _, tag := range project.Tags {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				normalized.Tags = append(normalized.Tags, trimmed)
			}
		}
		out.Projects = append(out.Projects, normalized)
	}

	if len(profile.Experience) > maxEntries {
		v.Add("experience", fmt.Sprintf("at most %d entries are allowed", maxEntries), len(profile.Experience))
	}
	for i, entry := range profile.Experience {
		field := fmt.Sprintf("experience[%d]", i)
		normalized := Experience{
			Company:   strings.TrimSpace(entry.Company),
			Role:      strings.TrimSpace(entry.Role),
			StartDate: strings.TrimSpace(entry.StartDate),
			EndDate:   strings.TrimSpace(entry.EndDate),
			Summary:   strings.TrimSpace(entry.Summary),
		}
		checkLength(v, field+".company", normalized.Company, 1, maxNameLength)
		checkLength(v, field+".role", normalized.Role, 1, maxNameLength)
		checkLength(v, field+".summary", normalized.Summary, 0, maxDescriptionLength)
		out.Experience = append(out.Experience, normalized)
	}

	if len(profile.Education) > maxEntries {
		v.Add("education", fmt.Sprintf("at most %d entries are allowed", maxEntries), len(profile.Education))
	}
	for i, entry := range profile.Education {
		field := fmt.Sprintf("education[%d]", i)
		normalized := Education{
			School:    strings.TrimSpace(entry.School),
			Degree:    strings.TrimSpace(entry.Degree),
			Field:     strings.TrimSpace(entry.Field),
			StartYear: entry.StartYear,
			EndYear:   entry.EndYear,
		}
		checkLength(v, field+".school", normalized.School, 1, maxNameLength)
		if normalized.StartYear != 0 && normalized.EndYear != 0 && normalized.EndYear < normalized.StartYear {
			v.Add(field+".end_year", "must not be before start_year", normalized.EndYear)
		}
		out.Education = append(out.Education, normalized)
	}

	if len(profile.SocialLinks) > maxSocialLinks {
		v.Add("social_links", fmt.Sprintf("at most %d links are allowed", maxSocialLinks), len(profile.SocialLinks))
	}
	for i, link := range profile.SocialLinks {
		field := fmt.Sprintf("social_links[%d]", i)
		normalized := SocialLink{
			Platform: strings.ToLower(strings.TrimSpace(link.Platform)),
			URL:      strings.TrimSpace(link.URL),
		}
		checkLength(v, field+".platform", normalized.Platform, 1, 40)
		checkURL(v, field+".url", normalized.URL, true)
		out.SocialLinks = append(out.SocialLinks, normalized)
	}

	if err := v.OrNil(); err != nil {
		return Profile{}, err
	}
	return out, nil
}
