package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/email-triage/internal/adapters/breaker"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

const probeText = "Reunião amanhã às 10h para revisar o contrato."

// subModels are the classification and generation models of one provider.
// Either may be nil.
type subModels struct {
	classifier core.ZeroShotClassifier
	generator  core.TextGenerator
}

// InferenceFactory loads the optional inference backend
type InferenceFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewInferenceFactory creates a new inference factory
func NewInferenceFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *InferenceFactory {
	return &InferenceFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Load builds the inference backend once at start-up. A sub-model that
// cannot be created is logged and left absent; only invalid configuration
// is returned as an error.
func (f *InferenceFactory) Load(ctx context.Context) (*core.InferenceBackend, error) {
	inferenceCfg, err := f.cfg.GetInference()
	if err != nil {
		return nil, err
	}

	provider := strings.ToLower(strings.TrimSpace(inferenceCfg.Provider))
	var models subModels
	switch provider {
	case "", "none":
		f.logger.Info("No inference provider configured, using keywords and templates")
		return core.NoBackend(), nil
	case "openai":
		models, err = f.openAIModels(inferenceCfg)
	case "gemini":
		models, err = f.geminiModels(ctx, inferenceCfg)
	case "bedrock":
		models, err = f.bedrockModels(ctx, inferenceCfg)
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", inferenceCfg.Provider)
	}
	if err != nil {
		f.logger.Warn("Failed to load inference provider, continuing without it",
			zap.String("provider", provider), zap.Error(err))
		return core.NoBackend(), nil
	}

	if inferenceCfg.Probe {
		models = f.probe(ctx, models, inferenceCfg.Timeout)
	}

	if inferenceCfg.Breaker.Enabled {
		settings := breaker.Settings{
			MaxRequests:         inferenceCfg.Breaker.MaxRequests,
			Interval:            inferenceCfg.Breaker.Interval,
			Timeout:             inferenceCfg.Breaker.Timeout,
			ConsecutiveFailures: inferenceCfg.Breaker.ConsecutiveFailures,
		}
		if models.classifier != nil {
			models.classifier = breaker.WrapClassifier(models.classifier, settings, f.logger)
		}
		if models.generator != nil {
			models.generator = breaker.WrapGenerator(models.generator, settings, f.logger)
		}
	}

	backend := core.NewInferenceBackend(models.classifier, models.generator, core.BackendOptions{
		Timeout:        inferenceCfg.Timeout,
		MaxConcurrency: inferenceCfg.MaxConcurrency,
	})

	f.logger.Info("Inference backend loaded",
		zap.String("provider", provider),
		zap.Bool("classifier", backend.ClassifierAvailable()),
		zap.String("classifier_model", backend.ClassifierName()),
		zap.Bool("generator", backend.GeneratorAvailable()),
		zap.String("generator_model", backend.GeneratorName()))

	return backend, nil
}

// probe runs one call against each sub-model and drops the ones that fail
func (f *InferenceFactory) probe(ctx context.Context, models subModels, timeout time.Duration) subModels {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if models.classifier != nil {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		_, err := models.classifier.Rank(probeCtx, probeText, []string{string(core.Productive), string(core.Unproductive)})
		cancel()
		if err != nil {
			f.logger.Warn("Classifier probe failed, disabling classification model",
				zap.String("model", models.classifier.Name()), zap.Error(err))
			closeModel(models.classifier)
			models.classifier = nil
		}
	}

	if models.generator != nil {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		_, err := models.generator.Generate(probeCtx, "Responda apenas: ok", core.GenerationParams{MaxLength: 8})
		cancel()
		if err != nil {
			f.logger.Warn("Generator probe failed, disabling generation model",
				zap.String("model", models.generator.Name()), zap.Error(err))
			closeModel(models.generator)
			models.generator = nil
		}
	}

	return models
}

func closeModel(m any) {
	if closer, ok := m.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
