package ai

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Prompt is a system/user message pair sent to the text generator.
type Prompt struct {
	System string
	User   string
}

const systemPreamble = "You are an expert career writer helping people present themselves on their personal portfolio website."

// BuildEnhancementPrompt maps an enhancement type and tone to the prompt pair used for dispatch.
func BuildEnhancementPrompt(content string, kind EnhancementType, tone Tone) (Prompt, error) {
	clause, err := toneClause(tone)
	if err != nil {
		return Prompt{}, err
	}

	var instruction, userFrame string
	switch kind {
	case EnhanceImprove:
		instruction = "Improve the clarity and impact of the text while keeping every fact the author stated. Do not invent achievements."
		userFrame = "Improve the following portfolio text:"
	case EnhanceProofread:
		instruction = "Correct spelling and grammar only. Keep the wording and length as close to the original as possible."
		userFrame = "Proofread the following portfolio text:"
	case EnhanceSimplify:
		instruction = "Rewrite the text in plain language a non-specialist can follow. Prefer short sentences and remove jargon."
		userFrame = "Simplify the following portfolio text:"
	case EnhanceExpand:
		instruction = "Expand the text into a fuller description, adding context about responsibilities and outcomes that follows from what the author wrote."
		userFrame = "Expand the following portfolio text:"
	case EnhanceKeywords:
		instruction = "Rewrite the text so it naturally includes the industry keywords and skills a recruiter would search for, without keyword stuffing."
		userFrame = "Optimise the following portfolio text for relevant keywords:"
	default:
		return Prompt{}, eris.Errorf("unsupported enhancement type %q", kind)
	}

	return Prompt{
		System: fmt.Sprintf("%s %s Write %s. Return only the rewritten text without commentary or quotation marks.", systemPreamble, instruction, clause),
		User:   userFrame + "\n\n" + content,
	}, nil
}

// BuildBioPrompt produces the prompt pair for a first-person portfolio bio.
func BuildBioPrompt(req BioRequest) (Prompt, error) {
	clause, err := toneClause(req.Tone)
	if err != nil {
		return Prompt{}, err
	}

	var user strings.Builder
	user.WriteString("Write a portfolio bio from these details.\n\n")
	user.WriteString("Skills: ")
	user.WriteString(strings.Join(req.Skills, ", "))
	if req.Experience != "" {
		user.WriteString("\n\nExperience:\n")
		user.WriteString(req.Experience)
	}
	if req.Education != "" {
		user.WriteString("\n\nEducation:\n")
		user.WriteString(req.Education)
	}

	return Prompt{
		System: fmt.Sprintf("%s Write a concise first-person bio of two or three short paragraphs, %s. Use only the facts provided. Return plain text without headings.", systemPreamble, clause),
		User:   user.String(),
	}, nil
}

// BuildSkillsPrompt produces the prompt pair for skill recommendations.
func BuildSkillsPrompt(req SkillRecommendationRequest) Prompt {
	var user strings.Builder
	user.WriteString("Target role: ")
	user.WriteString(req.JobTitle)
	if len(req.CurrentSkills) > 0 {
		user.WriteString("\nSkills they already have: ")
		user.WriteString(strings.Join(req.CurrentSkills, ", "))
	}
	if req.Experience != "" {
		user.WriteString("\nExperience:\n")
		user.WriteString(req.Experience)
	}

	return Prompt{
		System: fmt.Sprintf("%s Recommend up to %d additional skills that would strengthen the candidate's portfolio for the target role. Respond with a JSON array of skill names only.", systemPreamble, MaxRecommendedSkills),
		User:   user.String(),
	}
}

func toneClause(tone Tone) (string, error) {
	switch tone {
	case ToneProfessional:
		return "in a professional tone that is polished and suitable for recruiters", nil
	case ToneConversational:
		return "in a conversational tone that is warm and approachable, as if speaking to a colleague", nil
	case ToneTechnical:
		return "in a technical tone that is precise and uses accurate domain terminology", nil
	case ToneEnthusiastic:
		return "in an enthusiastic tone that conveys energy and genuine passion for the work", nil
	case ToneAuthoritative:
		return "in an authoritative tone that projects expertise and leadership", nil
	default:
		return "", eris.Errorf("unsupported tone %q", tone)
	}
}
