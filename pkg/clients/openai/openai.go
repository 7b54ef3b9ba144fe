package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.openai.com"
	chatPath       = "/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	maxTokens      = 1024
)

// Client defines the completion interface the pipeline stages depend on.
// Implementations must honor JSONMode by returning syntactically valid JSON.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest describes one structured-output completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	JSONMode    bool
}

type openAIClient struct {
	httpClient *resty.Client
	model      string
}

// Option customizes the client at construction time.
type Option func(*openAIClient)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *openAIClient) {
		c.httpClient.SetBaseURL(strings.TrimRight(url, "/"))
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *openAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// NewClient creates a configured OpenAI chat-completions client.
func NewClient(apiKey string, opts ...Option) Client {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	c := &openAIClient{httpClient: client, model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := chatRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var respBody chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&respBody).
		Post(chatPath)

	if err != nil {
		return "", fmt.Errorf("openai api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openai api error: %s", resp.String())
	}
	if len(respBody.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return StripFences(respBody.Choices[0].Message.Content), nil
}

// StripFences removes a surrounding markdown code block if the model
// wrapped its JSON despite the structured-output request.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
