package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/email-triage/internal/adapters/ranking"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NewAPIClient creates a Gemini API client
func NewAPIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Classifier is a zero-shot classifier backed by Gemini
type Classifier struct {
	client        *genai.Client
	modelName     string
	maxBodySize   int
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewClassifier creates a new Gemini classifier. The classifier owns client.
func NewClassifier(
	client *genai.Client,
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

// Close closes the Gemini client
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Rank asks the model to rank the candidate labels for text
func (c *Classifier) Rank(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(ranking.MaxTokens)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(ranking.SystemPrompt))

	prompt := ranking.Prompt(c.textProcessor.ProcessText(text, c.maxBodySize), labels)
	answer, err := generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Gemini ranking answer", zap.String("model", c.modelName), zap.String("answer", answer))
	return ranking.Parse(answer, labels, c.modelName)
}

// Generator is a text generator backed by Gemini
type Generator struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewGenerator creates a new Gemini generator. The generator owns client.
func NewGenerator(client *genai.Client, modelName string, logger *zap.Logger) *Generator {
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

// Close closes the Gemini client
func (g *Generator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate runs the prompt. NumBeams is ignored; Gemini samples a single candidate.
func (g *Generator) Generate(ctx context.Context, prompt string, params core.GenerationParams) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetCandidateCount(1)
	if params.MaxLength > 0 {
		model.SetMaxOutputTokens(int32(params.MaxLength))
	}
	if params.Temperature != nil {
		model.SetTemperature(*params.Temperature)
	}
	return generate(ctx, model, prompt)
}

func generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
