package ai

import (
	"context"
	"time"
)

// EnhancementType selects the transformation applied to user content.
type EnhancementType string

const (
	EnhanceImprove   EnhancementType = "improve"
	EnhanceProofread EnhancementType = "proofread"
	EnhanceSimplify  EnhancementType = "simplify"
	EnhanceExpand    EnhancementType = "expand"
	EnhanceKeywords  EnhancementType = "keywords"
)

// EnhancementTypes lists every supported enhancement type.
var EnhancementTypes = []EnhancementType{EnhanceImprove, EnhanceProofread, EnhanceSimplify, EnhanceExpand, EnhanceKeywords}

// Valid reports whether t is a supported enhancement type.
func (t EnhancementType) Valid() bool {
	switch t {
	case EnhanceImprove, EnhanceProofread, EnhanceSimplify, EnhanceExpand, EnhanceKeywords:
		return true
	}
	return false
}

// Tone is the register the generated text should be written in.
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneConversational Tone = "conversational"
	ToneTechnical      Tone = "technical"
	ToneEnthusiastic   Tone = "enthusiastic"
	ToneAuthoritative  Tone = "authoritative"
)

// Tones lists every supported tone.
var Tones = []Tone{ToneProfessional, ToneConversational, ToneTechnical, ToneEnthusiastic, ToneAuthoritative}

// Valid reports whether t is a supported tone.
func (t Tone) Valid() bool {
	switch t {
	case ToneProfessional, ToneConversational, ToneTechnical, ToneEnthusiastic, ToneAuthoritative:
		return true
	}
	return false
}

// EnhancementRequest asks for a piece of portfolio text to be rewritten.
type EnhancementRequest struct {
	Content string
	Type    EnhancementType
	Tone    Tone
}

// BioRequest asks for a narrative bio built from structured facts.
type BioRequest struct {
	Skills     []string
	Experience string
	Education  string
	Tone       Tone
}

// SkillRecommendationRequest asks for skills relevant to a target role.
type SkillRecommendationRequest struct {
	JobTitle      string
	CurrentSkills []string
	Experience    string
}

// Quota describes a caller's position in the trailing usage window.
type Quota struct {
	Limit     int
	Used      int
	Remaining int
	Window    time.Duration
}

// UsageEntry is one accepted gateway request.
type UsageEntry struct {
	CallerID       uint
	RequestType    string
	PromptLength   int
	ResponseLength int
	Model          string
	CreatedAt      time.Time
}

// UsageStore counts and appends usage entries.
type UsageStore interface {
	CountRecentRequests(ctx context.Context, callerID uint, since time.Time) (int64, error)
	RecordUsage(ctx context.Context, entry UsageEntry) error
}
