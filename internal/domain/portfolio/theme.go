package portfolio

import (
	"regexp"
	"strings"

	"folio/app/internal/domain/errs"
)

// Theme selects the public page layout.
type Theme string

const (
	ThemeMinimal  Theme = "minimal"
	ThemeModern   Theme = "modern"
	ThemeClassic  Theme = "classic"
	ThemeDark     Theme = "dark"
	ThemeCreative Theme = "creative"

	DefaultTheme = ThemeMinimal
)

// Themes lists the catalogue in display order.
var Themes = []Theme{ThemeMinimal, ThemeModern, ThemeClassic, ThemeDark, ThemeCreative}

var fonts = map[string]struct{}{"sans": {}, "serif": {}, "mono": {}}

var accentPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// ThemeSettings are per-portfolio overrides applied on top of a theme.
type ThemeSettings struct {
	AccentColor string `json:"accent_color,omitempty"`
	Font        string `json:"font,omitempty"`
	ShowContact *bool  `json:"show_contact,omitempty"`
}

// ParseTheme normalises name and checks it against the catalogue. Empty selects DefaultTheme.
func ParseTheme(name string) (Theme, bool) {
	normalized := Theme(strings.ToLower(strings.TrimSpace(name)))
	if normalized == "" {
		return DefaultTheme, true
	}
	for _, theme := range Themes {
		if theme == normalized {
			return theme, true
		}
	}
	return "", false
}

// Merge overlays the non-empty fields of update onto s.
func (s ThemeSettings) Merge(update ThemeSettings) ThemeSettings {
	merged := s
	if update.AccentColor != "" {
		merged.AccentColor = update.AccentColor
	}
	if update.Font != "" {
		merged.Font = update.Font
	}
	if update.ShowContact != nil {
		value := *update.ShowContact
		merged.ShowContact = &value
	}
	return merged
}

func normalizeSettings(settings ThemeSettings, v *errs.ValidationError) ThemeSettings {
	settings.AccentColor = strings.ToLower(strings.TrimSpace(settings.AccentColor))
	settings.Font = strings.ToLower(strings.TrimSpace(settings.Font))

	if settings.AccentColor != "" && !accentPattern.MatchString(settings.AccentColor) {
		v.Add("settings.accent_color", "must be a #rrggbb colour", settings.AccentColor)
	}
	if settings.Font != "" {
		if _, ok := fonts[settings.Font]; !ok {
			v.Add("settings.font", "must be one of sans, serif, mono", settings.Font)
		}
	}
	return settings
}
