package llm

import "context"

// TextRequest describes a single text-generation call.
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float64
	MaxTokens    int
}

// TextGenerator produces free text from a system and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}
