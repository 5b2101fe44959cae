package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	domainllm "folio/app/internal/domain/llm"
)

type textGenerator struct {
	client *Client
	logger *logrus.Logger
}

// NewTextGenerator constructs a TextGenerator backed by client.
func NewTextGenerator(client *Client) (domainllm.TextGenerator, error) {
	if client == nil {
		return nil, eris.New("llm client is required")
	}

	return &textGenerator{client: client, logger: client.logger}, nil
}

func (g *textGenerator) GenerateText(ctx context.Context, req domainllm.TextRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", eris.New("model is required")
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		return "", eris.New("user prompt is required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	fields := logrus.Fields{"model": model}

	completion, err := g.client.chat.New(ctx, params)
	if err != nil {
		upstream := classify(err)
		fields["kind"] = upstream.Kind
		g.logError(fields, err, "requesting chat completion")
		return "", eris.Wrap(upstream, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := &domainllm.UpstreamError{Kind: domainllm.UpstreamUnavailable, Err: eris.New("completion returned no choices")}
		g.logError(fields, err, "processing chat completion")
		return "", err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := &domainllm.UpstreamError{Kind: domainllm.UpstreamRejected, Err: eris.New("completion blocked by content filter")}
		g.logError(fields, err, "generation blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := &domainllm.UpstreamError{Kind: domainllm.UpstreamRejected, Err: eris.Errorf("model refused: %s", refusal)}
		g.logError(fields, err, "generation refused")
		return "", err
	}

	return cleanReply(choice.Message.Content), nil
}

func (g *textGenerator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

// classify maps an SDK or transport failure onto an UpstreamError.
// Anything without an HTTP status (timeouts, refused connections) counts as unavailable.
func classify(err error) *domainllm.UpstreamError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &domainllm.UpstreamError{Kind: domainllm.UpstreamUnavailable, Err: err}
	}

	kind := domainllm.UpstreamUnavailable
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		kind = domainllm.UpstreamRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = domainllm.UpstreamBadRequest
	case http.StatusForbidden:
		kind = domainllm.UpstreamRejected
	}

	return &domainllm.UpstreamError{Kind: kind, StatusCode: apiErr.StatusCode, Err: err}
}

// cleanReply strips a surrounding code fence and flattens replies that came back as HTML.
func cleanReply(content string) string {
	trimmed := stripCodeFence(strings.TrimSpace(content))
	if !strings.HasPrefix(trimmed, "<") {
		return trimmed
	}

	flattened, err := flattenHTML(trimmed)
	if err != nil || flattened == "" {
		return trimmed
	}
	return flattened
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := content[3:]
	newline := strings.IndexByte(body, '\n')
	if newline == -1 {
		return content
	}
	body = body[newline+1:]

	trimmedBody := strings.TrimRight(body, " \t\r\n")
	if !strings.HasSuffix(trimmedBody, "```") {
		return content
	}

	trimmedBody = strings.TrimRight(trimmedBody[:len(trimmedBody)-3], " \t\r\n")
	return strings.TrimSpace(trimmedBody)
}

var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "ul": {}, "ol": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// flattenHTML keeps the text of an HTML fragment, turning block elements into paragraph breaks.
func flattenHTML(content string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", eris.Wrap(err, "parsing html reply")
	}

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		text := strings.Join(strings.Fields(current.String()), " ")
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			current.WriteString(node.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			name := strings.ToLower(node.Data)
			if name == "head" || name == "script" || name == "style" {
				return
			}
			if _, block := blockElements[name]; block {
				flush()
				defer flush()
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	flush()

	return strings.Join(paragraphs, "\n\n"), nil
}
