package openai

import (
	"context"
	"fmt"

	"github.com/mikey/email-triage/internal/adapters/ranking"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// NewAPIClient creates an OpenAI API client. A non-empty baseURL points it at
// any OpenAI compatible server.
func NewAPIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Classifier is a zero-shot classifier backed by OpenAI chat completions
type Classifier struct {
	client        *openai.Client
	modelName     string
	maxBodySize   int
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewClassifier creates a new OpenAI classifier
func NewClassifier(
	client *openai.Client,
	modelName string,
	maxBodySize int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *Classifier {
	return &Classifier{
		client:        client,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Name returns the model name
func (c *Classifier) Name() string {
	return c.modelName
}

// Rank asks the model to rank the candidate labels for text
func (c *Classifier) Rank(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	prompt := ranking.Prompt(c.textProcessor.ProcessText(text, c.maxBodySize), labels)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: ranking.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   ranking.MaxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	answer, err := complete(ctx, c.client, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("OpenAI ranking answer", zap.String("model", c.modelName), zap.String("answer", answer))
	return ranking.Parse(answer, labels, c.modelName)
}

// Generator is a text generator backed by OpenAI chat completions
type Generator struct {
	client    *openai.Client
	modelName string
	logger    *zap.Logger
}

// NewGenerator creates a new OpenAI generator
func NewGenerator(client *openai.Client, modelName string, logger *zap.Logger) *Generator {
	return &Generator{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}
}

// Name returns the model name
func (g *Generator) Name() string {
	return g.modelName
}

// Generate runs the prompt. Beam search is not offered by the chat API, so
// NumBeams is ignored.
func (g *Generator) Generate(ctx context.Context, prompt string, params core.GenerationParams) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens: params.MaxLength,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}

	return complete(ctx, g.client, req)
}

func complete(ctx context.Context, client *openai.Client, req openai.ChatCompletionRequest) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
