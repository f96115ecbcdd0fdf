package factory

import (
	"context"

	"github.com/mikey/email-triage/internal/adapters/bedrock"
	"github.com/mikey/email-triage/internal/config"
)

// bedrockModels creates the Bedrock sub-models on one runtime client
func (f *InferenceFactory) bedrockModels(ctx context.Context, inferenceCfg config.InferenceConfig) (subModels, error) {
	bedrockCfg := f.cfg.GetBedrock()

	client, err := bedrock.NewAPIClient(ctx, bedrockCfg.Region)
	if err != nil {
		return subModels{}, err
	}

	var models subModels
	if inferenceCfg.ClassifierEnabled && bedrockCfg.ClassifierModelID != "" {
		models.classifier = bedrock.NewClassifier(client, bedrockCfg.ClassifierModelID, bedrockCfg.MaxBodySize, f.textProcessor, f.logger)
	}
	if inferenceCfg.GeneratorEnabled && bedrockCfg.GeneratorModelID != "" {
		models.generator = bedrock.NewGenerator(client, bedrockCfg.GeneratorModelID, f.logger)
	}
	return models, nil
}
