package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nikbrunner/bmsort/internal/model"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
	DefaultTimeout = 30 * time.Second

	temperature = 0.3
	maxTokens   = 200
)

// Config configures the backend connection.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completion backend.
type Client struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

// NewClient creates a new AI client.
// Returns ErrNoAPIKey if cfg.APIKey is empty.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		log:    log,
	}, nil
}

// Classify asks the backend for a category for one bookmark.
func (c *Client) Classify(ctx context.Context, b model.Bookmark, settings model.Settings) (CategoryInfo, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(b, settings)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return CategoryInfo{}, backendError(err)
	}

	if len(resp.Choices) == 0 {
		return CategoryInfo{}, ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return CategoryInfo{}, ErrEmptyResponse
	}

	info, strict := ParseReply(content)
	if !strict {
		c.log.Debug("classifier reply was not valid JSON, used text fallback",
			zap.String("url", b.URL), zap.String("content", content))
	}
	return info, nil
}

// backendError keeps the backend's own message when it sent one.
func backendError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", apiErr.HTTPStatusCode)
		}
		return &BackendError{StatusCode: apiErr.HTTPStatusCode, Message: msg, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &BackendError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    fmt.Sprintf("HTTP %d", reqErr.HTTPStatusCode),
			Err:        err,
		}
	}

	return &BackendError{Message: err.Error(), Err: err}
}
