package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// candidateLabels are submitted to the zero-shot classifier in this order
var candidateLabels = []string{string(Productive), string(Unproductive)}

// Classifier labels email text as Productive or Unproductive.
// The model path is used when the classification sub-model is loaded; every
// failure on that path degrades to the keyword scorer.
type Classifier struct {
	backend  *InferenceBackend
	scorer   Scorer
	text     *utils.TextProcessor
	cache    CacheRepository
	cacheTTL time.Duration
	metrics  Metrics
	logger   *zap.Logger
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithVerdictCache memoizes model verdicts for ttl
func WithVerdictCache(cache CacheRepository, ttl time.Duration) ClassifierOption {
	return func(c *Classifier) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithClassifierMetrics records classification outcomes
func WithClassifierMetrics(m Metrics) ClassifierOption {
	return func(c *Classifier) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewClassifier creates a new classifier
func NewClassifier(
	backend *InferenceBackend,
	scorer Scorer,
	text *utils.TextProcessor,
	logger *zap.Logger,
	opts ...ClassifierOption,
) *Classifier {
	c := &Classifier{
		backend: backend,
		scorer:  scorer,
		text:    text,
		metrics: NopMetrics(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the category of text. It never fails.
func (c *Classifier) Classify(ctx context.Context, text string) ClassificationResult {
	normalized := c.text.Normalize(text)

	if normalized != "" && c.backend.ClassifierAvailable() {
		if result, ok := c.classifyWithModel(ctx, normalized); ok {
			c.metrics.Classified(result.Source, result.Category)
			return result
		}
	}

	result := c.classifyWithKeywords(normalized)
	c.metrics.Classified(result.Source, result.Category)
	return result
}

func (c *Classifier) classifyWithModel(ctx context.Context, normalized string) (ClassificationResult, bool) {
	key := verdictKey(normalized)
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, key); err == nil {
			c.logger.Debug("Verdict cache hit", zap.String("category", string(entry.Category)))
			return ClassificationResult{
				Category:   entry.Category,
				Confidence: entry.Confidence,
				Source:     SourceCache,
				ModelUsed:  entry.ModelUsed,
			}, true
		}
	}

	start := time.Now()
	ranking, err := c.backend.Rank(ctx, normalized, candidateLabels)
	c.metrics.InferenceDuration("classify", time.Since(start))
	if err != nil {
		c.logger.Warn("Zero-shot classification failed, using keyword scorer",
			zap.String("model", c.backend.ClassifierName()),
			zap.Error(err))
		c.metrics.Fallback("classify", "error")
		return ClassificationResult{}, false
	}

	label, score, hasScore := ranking.Top()
	category, ok := ParseCategory(label)
	if !ok {
		c.logger.Warn("Zero-shot classifier returned an unknown label, using keyword scorer",
			zap.String("model", c.backend.ClassifierName()),
			zap.String("label", label))
		c.metrics.Fallback("classify", "unknown_label")
		return ClassificationResult{}, false
	}

	result := ClassificationResult{
		Category:   category,
		Confidence: confidenceLabel(score, hasScore),
		Source:     SourceModel,
		ModelUsed:  ranking.ModelUsed,
	}
	if result.ModelUsed == "" {
		result.ModelUsed = c.backend.ClassifierName()
	}

	if c.cache != nil {
		now := time.Now()
		entry := &CacheEntry{
			Key:        key,
			Category:   result.Category,
			Confidence: result.Confidence,
			ModelUsed:  result.ModelUsed,
			StoredAt:   now,
			ExpiresAt:  now.Add(c.cacheTTL),
		}
		if err := c.cache.Set(ctx, entry); err != nil {
			c.logger.Error("Failed to update verdict cache", zap.Error(err))
		}
	}

	return result, true
}

func (c *Classifier) classifyWithKeywords(normalized string) ClassificationResult {
	score := c.scorer.Score(normalized)
	matched := score.ProductiveHits
	if score.Category == Unproductive {
		matched = score.UnproductiveHits
	}
	return ClassificationResult{
		Category:   score.Category,
		Confidence: ConfidenceHigh,
		Source:     SourceKeywords,
		ModelUsed:  SourceKeywords,
		Matched:    matched,
	}
}

// confidenceLabel turns an explicit backend score into a qualitative label.
// Without a score the label stays "high".
func confidenceLabel(score float64, hasScore bool) string {
	switch {
	case !hasScore || score >= 0.8:
		return ConfidenceHigh
	case score >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func verdictKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
