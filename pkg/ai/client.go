package ai

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	log "github.com/sirupsen/logrus"

	"rootstofarm.com/market/go-api/pkg/global"
)

const defaultDeployment = "gpt-35-turbo"

// Client wraps the Azure OpenAI chat API. A nil or disabled Client is usable
// and reports Enabled() == false.
type Client struct {
	api        *openai.Client
	deployment string
}

// NewClient builds a client from the AZURE_OPENAI_* settings.
func NewClient(cfg *global.Config, opts ...option.RequestOption) *Client {
	if cfg.AzureOpenAIEndpoint == "" || cfg.AzureOpenAIAPIKey == "" {
		log.Println("AI service disabled - Azure OpenAI credentials not provided")
		return &Client{}
	}

	opts = append([]option.RequestOption{
		option.WithBaseURL(cfg.AzureOpenAIEndpoint),
		option.WithAPIKey(cfg.AzureOpenAIAPIKey),
	}, opts...)
	api := openai.NewClient(opts...)

	deployment := cfg.AzureOpenAIDeployment
	if deployment == "" {
		deployment = defaultDeployment
	}
	log.Println("AI service initialized with Azure OpenAI")
	return &Client{api: &api, deployment: deployment}
}

func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

func (c *Client) complete(ctx context.Context, systemMessage, userMessage string) (string, error) {
	if !c.Enabled() {
		return "", &AIError{Message: "AI service is not enabled"}
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.deployment),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemMessage),
			openai.UserMessage(userMessage),
		},
		MaxTokens:   openai.Int(800),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		log.WithError(err).Warn("AI API error")
		return "", &AIError{Message: "Failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{Message: "AI returned empty response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// AIError represents an AI service error
type AIError struct {
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error {
	return e.Cause
}
