package factory

import (
	"context"
	"fmt"

	"github.com/mikey/email-triage/internal/adapters/gemini"
	"github.com/mikey/email-triage/internal/config"
	"go.uber.org/zap"
)

// geminiModels creates the Gemini sub-models. Each owns its own client so
// that either can be closed on its own.
func (f *InferenceFactory) geminiModels(ctx context.Context, inferenceCfg config.InferenceConfig) (subModels, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return subModels{}, fmt.Errorf("gemini API key is required")
	}

	var models subModels
	if inferenceCfg.ClassifierEnabled {
		client, err := gemini.NewAPIClient(ctx, geminiCfg.APIKey)
		if err != nil {
			f.logger.Warn("Failed to create Gemini classifier", zap.Error(err))
		} else {
			models.classifier = gemini.NewClassifier(client, geminiCfg.ClassifierModel, geminiCfg.MaxBodySize, f.textProcessor, f.logger)
		}
	}
	if inferenceCfg.GeneratorEnabled {
		client, err := gemini.NewAPIClient(ctx, geminiCfg.APIKey)
		if err != nil {
			f.logger.Warn("Failed to create Gemini generator", zap.Error(err))
		} else {
			models.generator = gemini.NewGenerator(client, geminiCfg.GeneratorModel, f.logger)
		}
	}
	return models, nil
}
