package factory

import (
	"fmt"

	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/scoring"
	"github.com/mikey/email-triage/internal/templates"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// PipelineFactory creates the triage pipeline components
type PipelineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config, logger *zap.Logger) *PipelineFactory {
	return &PipelineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *PipelineFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateScorer creates the keyword scorer with the configured strategy and weights
func (f *PipelineFactory) CreateScorer() (*scoring.KeywordScorer, error) {
	scoringCfg := f.cfg.GetScoring()
	strategy, err := scoring.ParseStrategy(scoringCfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring strategy: %w", err)
	}

	weights := scoring.Weights{
		BaseWeight:       scoringCfg.BaseWeight,
		HighWeight:       scoringCfg.HighWeight,
		ShortTextWords:   scoringCfg.ShortTextWords,
		LongTextWords:    scoringCfg.LongTextWords,
		ShortTextPenalty: scoringCfg.ShortTextPenalty,
		PunctuationBonus: scoringCfg.PunctuationBonus,
	}
	return scoring.NewKeywordScorer(strategy, weights, f.logger), nil
}

// CreateGenerationConfig maps the configured generation bounds
func (f *PipelineFactory) CreateGenerationConfig() core.GenerationConfig {
	genCfg := f.cfg.GetGeneration()
	cfg := core.DefaultGenerationConfig()
	if genCfg.MaxLength > 0 {
		cfg.MaxLength = genCfg.MaxLength
	}
	if genCfg.DetailedMaxLength > 0 {
		cfg.DetailedMaxLength = genCfg.DetailedMaxLength
	}
	if genCfg.NumBeams > 0 {
		cfg.NumBeams = genCfg.NumBeams
	}
	if genCfg.MinLength > 0 {
		cfg.MinLength = genCfg.MinLength
	}
	if genCfg.MaxInputChars > 0 {
		cfg.MaxInputChars = genCfg.MaxInputChars
	}
	cfg.Temperature = genCfg.Temperature
	return cfg
}

// CreateTriageService assembles the classifier, generator and insight
// extractor around a loaded backend. cache may be nil.
func (f *PipelineFactory) CreateTriageService(
	backend *core.InferenceBackend,
	cache core.CacheRepository,
	metrics core.Metrics,
	textProcessor *utils.TextProcessor,
) (*core.TriageService, error) {
	scorer, err := f.CreateScorer()
	if err != nil {
		return nil, err
	}

	opts := []core.ClassifierOption{core.WithClassifierMetrics(metrics)}
	if cache != nil {
		cacheCfg, err := f.cfg.GetCache()
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithVerdictCache(cache, cacheCfg.TTL))
	}

	classifier := core.NewClassifier(backend, scorer, textProcessor, f.logger, opts...)
	generator := core.NewResponseGenerator(
		backend,
		templates.NewBank(),
		core.NewRandomSource(f.cfg.GetUint64("templates.seed")),
		textProcessor,
		f.CreateGenerationConfig(),
		metrics,
		f.logger,
	)
	insights := core.NewInsightExtractor(classifier, scorer, textProcessor, f.logger)

	return core.NewTriageService(classifier, generator, insights, f.logger, f.cfg.GetInt("server.batch_concurrency")), nil
}
