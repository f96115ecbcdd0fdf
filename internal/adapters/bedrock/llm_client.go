package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/email-triage/internal/adapters/ranking"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// InvokeAPI is the part of the Bedrock runtime client used here
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// NewAPIClient loads the default AWS configuration for region and creates a
// Bedrock runtime client
func NewAPIClient(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// model invokes one Bedrock model, handling the payload family of its id
type model struct {
	client  InvokeAPI
	modelID string
}

func (m model) invoke(ctx context.Context, prompt string, maxTokens int, temperature *float32) (string, error) {
	payload, err := m.payload(prompt, maxTokens, temperature)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	return m.responseText(resp.Body)
}

func (m model) payload(prompt string, maxTokens int, temperature *float32) ([]byte, error) {
	switch {
	case m.isAnthropicModel():
		body := map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        maxTokens,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt},
			},
		}
		if temperature != nil {
			body["temperature"] = *temperature
		}
		return json.Marshal(body)
	case m.isAmazonTitanModel():
		genCfg := map[string]interface{}{
			"maxTokenCount": maxTokens,
		}
		if temperature != nil {
			genCfg["temperature"] = *temperature
		}
		return json.Marshal(map[string]interface{}{
			"inputText":            prompt,
			"textGenerationConfig": genCfg,
		})
	default:
		body := map[string]interface{}{
			"prompt":     prompt,
			"max_tokens": maxTokens,
		}
		if temperature != nil {
			body["temperature"] = *temperature
		}
		return json.Marshal(body)
	}
}

func (m model) responseText(body []byte) (string, error) {
	switch {
	case m.isAnthropicModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, c := range claudeResp.Content {
			if c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
		if b.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude model")
		}
		return b.String(), nil
	case m.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, s := range []string{genericResp.Output, genericResp.Text, genericResp.Response, genericResp.Generation} {
			if s != "" {
				return s, nil
			}
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (m model) isAnthropicModel() bool {
	return strings.Contains(m.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (m model) isAmazonTitanModel() bool {
	return strings.HasPrefix(m.modelID, "amazon.titan")
}

// Classifier is a zero-shot classifier backed by a Bedrock model
type Classifier struct {
	model         model
	maxBodySize   int
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewClassifier creates a new Bedrock classifier
func NewClassifier(
	client InvokeAPI,
	modelID string,
	maxBodySize int,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *Classifier {
	return &Classifier{
		model:         model{client: client, modelID: modelID},
		maxBodySize:   maxBodySize,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Name returns the model id
func (c *Classifier) Name() string {
	return c.model.modelID
}

// Rank asks the model to rank the candidate labels for text
func (c *Classifier) Rank(ctx context.Context, text string, labels []string) (*core.Ranking, error) {
	prompt := ranking.SystemPrompt + "\n\n" + ranking.Prompt(c.textProcessor.ProcessText(text, c.maxBodySize), labels)

	zero := float32(0)
	answer, err := c.model.invoke(ctx, prompt, ranking.MaxTokens, &zero)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Bedrock ranking answer", zap.String("model", c.model.modelID), zap.String("answer", answer))
	return ranking.Parse(answer, labels, c.model.modelID)
}

// Generator is a text generator backed by a Bedrock model
type Generator struct {
	model  model
	logger *zap.Logger
}

// NewGenerator creates a new Bedrock generator
func NewGenerator(client InvokeAPI, modelID string, logger *zap.Logger) *Generator {
	return &Generator{
		model:  model{client: client, modelID: modelID},
		logger: logger,
	}
}

// Name returns the model id
func (g *Generator) Name() string {
	return g.model.modelID
}

// Generate runs the prompt. NumBeams is ignored.
func (g *Generator) Generate(ctx context.Context, prompt string, params core.GenerationParams) (string, error) {
	return g.model.invoke(ctx, prompt, params.MaxLength, params.Temperature)
}
