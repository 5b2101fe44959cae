package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ClientOptions controls how the chat completion client is initialised.
// An empty BaseURL keeps the SDK default endpoint.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// Client wraps the OpenAI SDK chat completion service.
type Client struct {
	chat    chatCompletionClient
	logger  *logrus.Logger
	baseURL string
}

type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// NewClient constructs a Client for any OpenAI-compatible endpoint.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, eris.New("llm api key is required")
	}

	// One attempt per call; the gateway decides whether a failure is retried.
	requestOptions := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(baseURL))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil && opts.Timeout > 0 {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if httpClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(httpClient))
	}

	apiClient := openai.NewClient(requestOptions...)

	return &Client{
		chat:    &apiClient.Chat.Completions,
		logger:  opts.Logger,
		baseURL: baseURL,
	}, nil
}

// Logger exposes the logger associated with the client.
func (c *Client) Logger() *logrus.Logger {
	return c.logger
}

// BaseURL returns the configured base URL, empty when the SDK default is used.
func (c *Client) BaseURL() string {
	return c.baseURL
}
