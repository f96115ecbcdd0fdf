package factory

import (
	"fmt"

	"github.com/mikey/email-triage/internal/adapters/openai"
	"github.com/mikey/email-triage/internal/config"
)

// openAIModels creates the OpenAI sub-models. Both share one API client.
func (f *InferenceFactory) openAIModels(inferenceCfg config.InferenceConfig) (subModels, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return subModels{}, fmt.Errorf("openai API key is required")
	}

	client := openai.NewAPIClient(openaiCfg.APIKey, openaiCfg.BaseURL)

	var models subModels
	if inferenceCfg.ClassifierEnabled {
		models.classifier = openai.NewClassifier(client, openaiCfg.ClassifierModel, openaiCfg.MaxBodySize, f.textProcessor, f.logger)
	}
	if inferenceCfg.GeneratorEnabled {
		models.generator = openai.NewGenerator(client, openaiCfg.GeneratorModel, f.logger)
	}
	return models, nil
}
