package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"

	domainllm "folio/app/internal/domain/llm"
	platformlog "folio/app/internal/platform/log"
)

type fakeChatService struct {
	response   *openai.ChatCompletion
	err        error
	calls      int
	lastParams openai.ChatCompletionNewParams
}

func (f *fakeChatService) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.calls++
	f.lastParams = body
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func completionWith(content, finishReason, refusal string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		ID:      "cmpl-1",
		Created: time.Now().Unix(),
		Model:   "test-model",
		Object:  constant.ValueOf[constant.ChatCompletion](),
		Choices: []openai.ChatCompletionChoice{
			{
				FinishReason: finishReason,
				Index:        0,
				Message: openai.ChatCompletionMessage{
					Content: content,
					Refusal: refusal,
					Role:    constant.ValueOf[constant.Assistant](),
				},
			},
		},
	}
}

func newTestGenerator(t *testing.T, chat *fakeChatService) domainllm.TextGenerator {
	t.Helper()

	client := &Client{chat: chat, logger: platformlog.Discard()}
	generator, err := NewTextGenerator(client)
	if err != nil {
		t.Fatalf("NewTextGenerator returned error: %v", err)
	}
	return generator
}

func apiError(status int) *openai.Error {
	return &openai.Error{
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://llm.example.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestGenerateTextSendsRequestShape(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: completionWith("  A sharper paragraph.  ", "stop", "")}
	generator := newTestGenerator(t, chat)

	text, err := generator.GenerateText(context.Background(), domainllm.TextRequest{
		SystemPrompt: "You are an editor.",
		UserPrompt:   "Improve this.",
		Model:        "gpt-4o-mini",
		Temperature:  0.7,
		MaxTokens:    1000,
	})
	if err != nil {
		t.Fatalf("GenerateText returned error: %v", err)
	}
	if text != "A sharper paragraph." {
		t.Fatalf("unexpected text %q", text)
	}

	if chat.lastParams.Model != "gpt-4o-mini" {
		t.Fatalf("expected model to be forwarded, got %q", chat.lastParams.Model)
	}
	if len(chat.lastParams.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(chat.lastParams.Messages))
	}
	if got := chat.lastParams.Temperature.Value; got != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", got)
	}
	if got := chat.lastParams.MaxTokens.Value; got != 1000 {
		t.Fatalf("expected max tokens 1000, got %d", got)
	}
}

func TestGenerateTextOmitsEmptySystemPrompt(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: completionWith("ok", "stop", "")}
	generator := newTestGenerator(t, chat)

	if _, err := generator.GenerateText(context.Background(), domainllm.TextRequest{UserPrompt: "hi", Model: "m"}); err != nil {
		t.Fatalf("GenerateText returned error: %v", err)
	}
	if len(chat.lastParams.Messages) != 1 {
		t.Fatalf("expected only the user message, got %d", len(chat.lastParams.Messages))
	}
}

func TestGenerateTextValidatesRequest(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: completionWith("ok", "stop", "")}
	generator := newTestGenerator(t, chat)

	if _, err := generator.GenerateText(context.Background(), domainllm.TextRequest{UserPrompt: "hi"}); err == nil {
		t.Fatalf("expected error for missing model")
	}
	if _, err := generator.GenerateText(context.Background(), domainllm.TextRequest{Model: "m", UserPrompt: "  "}); err == nil {
		t.Fatalf("expected error for blank prompt")
	}
	if chat.calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", chat.calls)
	}
}

func TestGenerateTextClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		want   domainllm.UpstreamKind
		status int
	}{
		{"throttled", apiError(http.StatusTooManyRequests), domainllm.UpstreamRateLimited, http.StatusTooManyRequests},
		{"bad request", apiError(http.StatusBadRequest), domainllm.UpstreamBadRequest, http.StatusBadRequest},
		{"unprocessable", apiError(http.StatusUnprocessableEntity), domainllm.UpstreamBadRequest, http.StatusUnprocessableEntity},
		{"forbidden", apiError(http.StatusForbidden), domainllm.UpstreamRejected, http.StatusForbidden},
		{"server error", apiError(http.StatusBadGateway), domainllm.UpstreamUnavailable, http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, domainllm.UpstreamUnavailable, 0},
		{"network", eris.New("dial tcp: connection refused"), domainllm.UpstreamUnavailable, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			generator := newTestGenerator(t, &fakeChatService{err: tc.err})
			_, err := generator.GenerateText(context.Background(), domainllm.TextRequest{UserPrompt: "hi", Model: "m"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if kind := domainllm.KindOf(err); kind != tc.want {
				t.Fatalf("expected kind %s, got %s", tc.want, kind)
			}

			var upstream *domainllm.UpstreamError
			if !eris.As(err, &upstream) {
				t.Fatalf("expected UpstreamError in chain, got %v", err)
			}
			if upstream.StatusCode != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, upstream.StatusCode)
			}
		})
	}
}

func TestGenerateTextRejectsFilteredOrRefused(t *testing.T) {
	t.Parallel()

	cases := []*openai.ChatCompletion{
		completionWith("", "content_filter", ""),
		completionWith("", "stop", "I can't help with that."),
	}
	for _, completion := range cases {
		generator := newTestGenerator(t, &fakeChatService{response: completion})
		_, err := generator.GenerateText(context.Background(), domainllm.TextRequest{UserPrompt: "hi", Model: "m"})
		if kind := domainllm.KindOf(err); err == nil || kind != domainllm.UpstreamRejected {
			t.Fatalf("expected rejected error, got %v", err)
		}
	}
}

func TestGenerateTextWithoutChoices(t *testing.T) {
	t.Parallel()

	completion := completionWith("x", "stop", "")
	completion.Choices = nil
	generator := newTestGenerator(t, &fakeChatService{response: completion})

	_, err := generator.GenerateText(context.Background(), domainllm.TextRequest{UserPrompt: "hi", Model: "m"})
	if err == nil || domainllm.KindOf(err) != domainllm.UpstreamUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestCleanReply(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Hello world. ", "Hello world."},
		{"fenced", "```text\nHello world.\n```", "Hello world."},
		{"fenced json", "```json\n[\"Go\"]\n```", `["Go"]`},
		{"unterminated fence", "```text\nHello", "```text\nHello"},
		{"html paragraphs", "<p>First  line.</p><p>Second <b>bold</b> line.</p>", "First line.\n\nSecond bold line."},
		{"html with script", "<div>Bio<script>alert(1)</script></div>", "Bio"},
		{"empty returns empty", "   ", ""},
	}

	for _, tc := range cases {
		if got := cleanReply(tc.in); got != tc.want {
			t.Errorf("%s: cleanReply(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Fatalf("expected error when api key is missing")
	}

	client, err := NewClient(ClientOptions{APIKey: "sk-test", BaseURL: " https://llm.example.com/v1 ", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if client.BaseURL() != "https://llm.example.com/v1" {
		t.Fatalf("unexpected base url %q", client.BaseURL())
	}
}

func TestGenerateTextCallsUpstreamOnce(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   domainllm.UpstreamKind
	}{
		{http.StatusTooManyRequests, domainllm.UpstreamRateLimited},
		{http.StatusServiceUnavailable, domainllm.UpstreamUnavailable},
	}

	for _, tc := range cases {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"try later","type":"server_error"}}`))
		}))

		client, err := NewClient(ClientOptions{APIKey: "sk-test", BaseURL: srv.URL, Logger: platformlog.Discard()})
		if err != nil {
			srv.Close()
			t.Fatalf("NewClient returned error: %v", err)
		}
		generator, err := NewTextGenerator(client)
		if err != nil {
			srv.Close()
			t.Fatalf("NewTextGenerator returned error: %v", err)
		}

		_, err = generator.GenerateText(context.Background(), domainllm.TextRequest{
			Model:      "test-model",
			UserPrompt: "Improve this.",
		})
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if kind := domainllm.KindOf(err); kind != tc.want {
			t.Fatalf("status %d: expected kind %s, got %s", tc.status, tc.want, kind)
		}
		if got := hits.Load(); got != 1 {
			t.Fatalf("status %d: expected exactly one upstream request, got %d", tc.status, got)
		}
	}
}

func TestNewTextGeneratorRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewTextGenerator(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
