package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"folio/app/internal/domain/portfolio"
)

// pageRenderer turns stored portfolio text into markup that is safe to embed.
type pageRenderer struct {
	markdown goldmark.Markdown
	rich     *bluemonday.Policy
	plain    *bluemonday.Policy
}

func newPageRenderer() *pageRenderer {
	rich := bluemonday.UGCPolicy()
	rich.RequireNoFollowOnLinks(true)
	rich.AddTargetBlankToFullyQualifiedLinks(true)

	return &pageRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		rich:     rich,
		plain:    bluemonday.StrictPolicy(),
	}
}

// markdownHTML renders Markdown and strips anything outside the user-content policy.
func (r *pageRenderer) markdownHTML(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return "<p>" + r.plain.Sanitize(source) + "</p>"
	}
	return r.rich.Sanitize(buf.String())
}

// plainText strips all markup. The result is already entity-escaped.
func (r *pageRenderer) plainText(source string) string {
	return r.plain.Sanitize(strings.TrimSpace(source))
}

type publicProject struct {
	Title           string
	URL             string
	Tags            []string
	DescriptionHTML string
}

type publicPage struct {
	Owner        string
	Title        string
	HeadlineText string
	BioHTML      string
	Theme        string
	Font         string
	Accent       string
	ShowContact  bool
	Skills       []portfolio.Skill
	Projects     []publicProject
	Experience   []portfolio.Experience
	Education    []portfolio.Education
	SocialLinks  []portfolio.SocialLink
}

func (r *pageRenderer) build(p *portfolio.Portfolio) publicPage {
	page := publicPage{
		Owner:        p.OwnerUsername,
		Title:        p.Title,
		HeadlineText: r.plainText(p.Headline),
		BioHTML:      r.markdownHTML(p.Bio),
		Theme:        string(p.Theme),
		Font:         p.Settings.Font,
		Accent:       p.Settings.AccentColor,
		ShowContact:  p.Settings.ShowContact == nil || *p.Settings.ShowContact,
	}
	if page.Theme == "" {
		page.Theme = string(portfolio.DefaultTheme)
	}

	if p.Profile != nil {
		page.Skills = p.Profile.Skills
		page.Experience = p.Profile.Experience
		page.Education = p.Profile.Education
		page.SocialLinks = p.Profile.SocialLinks
		for _, project := range p.Profile.Projects {
			page.Projects = append(page.Projects, publicProject{
				Title:           project.Title,
				URL:             project.URL,
				Tags:            project.Tags,
				DescriptionHTML: r.markdownHTML(project.Description),
			})
		}
	}

	return page
}

func portfolioPage(page publicPage) templ.Component {
	sections := []templ.Component{
		pageHeader(page.Title, page.HeadlineText),
		trustedSection("bio", "About", page.BioHTML),
		skillsSection(page.Skills),
		projectsSection(page.Projects),
		experienceSection(page.Experience),
		educationSection(page.Education),
	}
	if page.ShowContact {
		sections = append(sections, contactSection(page.SocialLinks))
	}
	sections = append(sections, markup(func(h *htmlWriter) {
		h.raw(`<footer>Built with Folio</footer>`)
	}))

	return pageLayout(page.Title+" · "+page.Owner, page.Accent, themeClass(page.Theme, page.Font), sections...)
}

func errorPage(statusLabel, message string) templ.Component {
	return pageLayout(statusLabel+" · Folio", "", themeClass(string(portfolio.DefaultTheme), ""),
		pageHeader(statusLabel, ""),
		markup(func(h *htmlWriter) {
			h.raw(`<p>`)
			h.text(message)
			h.raw(`</p>`)
		}),
	)
}

// markup adapts a writer function into a component.
func markup(write func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := &htmlWriter{w: w}
		write(h)
		return h.err
	})
}

// pageLayout wraps children in the document shell shared by every public page.
func pageLayout(title, accent, bodyClass string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><link rel="stylesheet" href="` + stylesheetPath + `">`)
		if accent != "" {
			h.raw(`<style>:root{--accent:`)
			h.text(accent)
			h.raw(`}</style>`)
		}
		h.raw(`</head><body class="`)
		h.attr(bodyClass)
		h.raw(`"><main>`)
		if h.err != nil {
			return h.err
		}

		for _, child := range children {
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}

		h.raw(`</main></body></html>`)
		return h.err
	})
}

func themeClass(theme, font string) string {
	class := "theme-" + theme
	if font != "" {
		class += " font-" + font
	}
	return class
}

// pageHeader expects headline to be sanitised already.
func pageHeader(title, headline string) templ.Component {
	return markup(func(h *htmlWriter) {
		h.raw(`<header><h1>`)
		h.text(title)
		h.raw(`</h1>`)
		if headline != "" {
			h.raw(`<p class="headline">` + headline + `</p>`)
		}
		h.raw(`</header>`)
	})
}

// trustedSection embeds already-sanitised HTML. Empty content renders nothing.
func trustedSection(class, heading, content string) templ.Component {
	return markup(func(h *htmlWriter) {
		if content == "" {
			return
		}
		h.raw(`<section class="`)
		h.attr(class)
		h.raw(`"><h2>`)
		h.text(heading)
		h.raw(`</h2>` + content + `</section>`)
	})
}

func skillsSection(skills []portfolio.Skill) templ.Component {
	return markup(func(h *htmlWriter) {
		if len(skills) == 0 {
			return
		}
		h.raw(`<section><h2>Skills</h2><ul class="skills">`)
		for _, skill := range skills {
			h.raw(`<li>`)
			h.text(skill.Name)
			if skill.Level != "" {
				h.raw(`<span class="level">`)
				h.text(skill.Level)
				h.raw(`</span>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ul></section>`)
	})
}

func projectsSection(projects []publicProject) templ.Component {
	return markup(func(h *htmlWriter) {
		if len(projects) == 0 {
			return
		}
		h.raw(`<section><h2>Projects</h2>`)
		for _, project := range projects {
			h.raw(`<article class="project"><h3>`)
			if project.URL != "" {
				h.raw(`<a href="`)
				h.url(project.URL)
				h.raw(`" rel="nofollow noopener" target="_blank">`)
				h.text(project.Title)
				h.raw(`</a>`)
			} else {
				h.text(project.Title)
			}
			h.raw(`</h3>`)
			h.raw(project.DescriptionHTML)
			if len(project.Tags) > 0 {
				h.raw(`<p class="tags">`)
				h.text(strings.Join(project.Tags, " · "))
				h.raw(`</p>`)
			}
			h.raw(`</article>`)
		}
		h.raw(`</section>`)
	})
}

func experienceSection(entries []portfolio.Experience) templ.Component {
	return markup(func(h *htmlWriter) {
		if len(entries) == 0 {
			return
		}
		h.raw(`<section><h2>Experience</h2>`)
		for _, entry := range entries {
			h.raw(`<div class="entry"><h3>`)
			h.text(entry.Role + " · " + entry.Company)
			h.raw(`</h3>`)
			if dates := dateRange(entry.StartDate, entry.EndDate); dates != "" {
				h.raw(`<p class="dates">`)
				h.text(dates)
				h.raw(`</p>`)
			}
			if entry.Summary != "" {
				h.raw(`<p>`)
				h.text(entry.Summary)
				h.raw(`</p>`)
			}
			h.raw(`</div>`)
		}
		h.raw(`</section>`)
	})
}

func educationSection(entries []portfolio.Education) templ.Component {
	return markup(func(h *htmlWriter) {
		if len(entries) == 0 {
			return
		}
		h.raw(`<section><h2>Education</h2>`)
		for _, entry := range entries {
			h.raw(`<div class="entry"><h3>`)
			h.text(entry.School)
			h.raw(`</h3>`)
			if degree := strings.TrimSpace(strings.Join([]string{entry.Degree, entry.Field}, " ")); degree != "" {
				h.raw(`<p>`)
				h.text(degree)
				h.raw(`</p>`)
			}
			if dates := yearRange(entry.StartYear, entry.EndYear); dates != "" {
				h.raw(`<p class="dates">`)
				h.text(dates)
				h.raw(`</p>`)
			}
			h.raw(`</div>`)
		}
		h.raw(`</section>`)
	})
}

func contactSection(links []portfolio.SocialLink) templ.Component {
	return markup(func(h *htmlWriter) {
		if len(links) == 0 {
			return
		}
		h.raw(`<section class="contact"><h2>Elsewhere</h2><ul>`)
		for _, link := range links {
			h.raw(`<li><a href="`)
			h.url(link.URL)
			h.raw(`" rel="me noopener" target="_blank">`)
			h.text(link.Platform)
			h.raw(`</a></li>`)
		}
		h.raw(`</ul></section>`)
	})
}

func dateRange(start, end string) string {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " – present"
	case start == "":
		return end
	default:
		return start + " – " + end
	}
}

func yearRange(start, end int) string {
	switch {
	case start == 0 && end == 0:
		return ""
	case end == 0:
		return fmt.Sprintf("%d – present", start)
	case start == 0:
		return fmt.Sprintf("%d", end)
	default:
		return fmt.Sprintf("%d – %d", start, end)
	}
}
