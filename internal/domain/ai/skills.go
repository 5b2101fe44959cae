package ai

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxRecommendedSkills caps the list returned by RecommendSkills.
const MaxRecommendedSkills = 15

const maxSkillNameLength = 100

var listMarkerPattern = regexp.MustCompile(`^(?:[-*•+]+|\d+[.)])\s*`)

// ParseSkillList extracts skill names from a model reply. It accepts a JSON array of strings,
// a JSON object with a "skills" array, or a newline or comma separated list with optional
// bullet or number markers. Duplicates and names already in existing are dropped, compared
// case-insensitively.
func ParseSkillList(raw string, existing []string) []string {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil
	}

	candidates, ok := parseJSONSkills(text)
	if !ok {
		candidates = splitSkillLines(text)
	}

	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, skill := range existing {
		seen[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	skills := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		name := cleanSkill(candidate)
		if name == "" || utf8.RuneCountInString(name) > maxSkillNameLength {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, name)
		if len(skills) == MaxRecommendedSkills {
			break
		}
	}

	return skills
}

func parseJSONSkills(text string) ([]string, bool) {
	switch {
	case strings.HasPrefix(text, "["):
		var list []string
		if err := json.Unmarshal([]byte(text), &list); err != nil {
			return nil, false
		}
		return list, true
	case strings.HasPrefix(text, "{"):
		var payload struct {
			Skills []string `json:"skills"`
		}
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return nil, false
		}
		return payload.Skills, true
	}
	return embeddedJSONSkills(text)
}

// embeddedJSONSkills decodes the first JSON string array found after leading prose.
// Anything following the array is ignored.
func embeddedJSONSkills(text string) ([]string, bool) {
	for offset := 0; offset < len(text); {
		idx := strings.IndexByte(text[offset:], '[')
		if idx == -1 {
			return nil, false
		}
		start := offset + idx

		var list []string
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&list); err == nil && len(list) > 0 {
			return list, true
		}
		offset = start + 1
	}
	return nil, false
}

func splitSkillLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || isHeadingLine(line) {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 && strings.Contains(lines[0], ",") {
		line := lines[0]
		// "Relevant skills: Go, Kafka" lists after the lead-in.
		if idx := strings.Index(line, ": "); idx > 0 && strings.Contains(line[idx:], ",") {
			line = line[idx+2:]
		}
		return strings.Split(line, ",")
	}
	return lines
}

// isHeadingLine reports whether line introduces a list rather than naming a skill:
// a Markdown heading, or an unmarked line ending in a colon.
func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	core := strings.TrimSpace(strings.Trim(trimmed, "*_"))
	if !strings.HasSuffix(core, ":") {
		return false
	}
	return !listMarkerPattern.MatchString(core)
}

func cleanSkill(candidate string) string {
	name := strings.TrimSpace(candidate)
	name = listMarkerPattern.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "**", "")

	// "Go: for services" and "Go - for services" keep only the name.
	if idx := strings.Index(name, ": "); idx > 0 {
		name = name[:idx]
	}
	if idx := strings.Index(name, " - "); idx > 0 {
		name = name[:idx]
	}

	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ",;.:")
	name = strings.Trim(name, "\"'`[]")
	return strings.TrimSpace(name)
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := content[3:]
	newline := strings.IndexByte(body, '\n')
	if newline == -1 {
		return strings.TrimSpace(strings.Trim(content, "`"))
	}
	body = strings.TrimRight(body[newline+1:], " \t\r\n")
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
