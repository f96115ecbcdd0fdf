// Package scoring implements the rule-based fallback classifier.
package scoring

import (
	"fmt"
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// Strategy selects the decision rule of the scorer
type Strategy string

const (
	// StrategyWeighted scores weighted keyword groups plus structural heuristics
	StrategyWeighted Strategy = "weighted"
	// StrategySimple marks a text productive when any of a short keyword list appears
	StrategySimple Strategy = "simple"
)

// ParseStrategy validates a strategy name
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyWeighted, "":
		return StrategyWeighted, nil
	case StrategySimple:
		return StrategySimple, nil
	default:
		return "", fmt.Errorf("unsupported scoring strategy: %s", name)
	}
}

// Weights are the tunable constants of the weighted strategy
type Weights struct {
	BaseWeight       int
	HighWeight       int
	ShortTextWords   int
	LongTextWords    int
	ShortTextPenalty int
	PunctuationBonus int
}

// DefaultWeights returns the weights the scorer was tuned with
func DefaultWeights() Weights {
	return Weights{
		BaseWeight:       1,
		HighWeight:       2,
		ShortTextWords:   5,
		LongTextWords:    20,
		ShortTextPenalty: 1,
		PunctuationBonus: 1,
	}
}

type compiledGroup struct {
	group
	set utils.PhraseSet
}

// KeywordScorer classifies text without any inference backend.
// It is deterministic and safe for concurrent use.
type KeywordScorer struct {
	strategy     Strategy
	weights      Weights
	productive   []compiledGroup
	unproductive []compiledGroup
	simple       utils.PhraseSet
	logger       *zap.Logger
}

// NewKeywordScorer creates a new keyword scorer
func NewKeywordScorer(strategy Strategy, weights Weights, logger *zap.Logger) *KeywordScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordScorer{
		strategy:     strategy,
		weights:      weights,
		productive:   compile(productiveGroups),
		unproductive: compile(unproductiveGroups),
		simple:       utils.NewPhraseSet(simpleKeywords...),
		logger:       logger,
	}
}

func compile(groups []group) []compiledGroup {
	compiled := make([]compiledGroup, len(groups))
	for i, g := range groups {
		compiled[i] = compiledGroup{group: g, set: utils.NewPhraseSet(g.keywords...)}
	}
	return compiled
}

// Strategy returns the configured strategy
func (s *KeywordScorer) Strategy() Strategy {
	return s.strategy
}

// Score classifies text and reports the evidence behind the verdict
func (s *KeywordScorer) Score(text string) core.KeywordScore {
	folded := utils.Fold(text)
	result := core.KeywordScore{Words: utils.WordCount(text)}

	for _, g := range s.productive {
		hits := g.set.Find(folded)
		result.ProductiveScore += len(hits) * s.weightOf(g.group)
		result.ProductiveHits = append(result.ProductiveHits, hits...)
	}
	for _, g := range s.unproductive {
		hits := g.set.Find(folded)
		result.UnproductiveScore += len(hits) * s.weightOf(g.group)
		result.UnproductiveHits = append(result.UnproductiveHits, hits...)
		if g.casual {
			result.CasualHits = append(result.CasualHits, hits...)
		}
	}

	if s.strategy == StrategySimple {
		s.decideSimple(folded, &result)
	} else {
		s.decideWeighted(text, &result)
	}

	s.logger.Debug("Keyword score",
		zap.String("strategy", string(s.strategy)),
		zap.String("category", string(result.Category)),
		zap.Int("productive_score", result.ProductiveScore),
		zap.Int("unproductive_score", result.UnproductiveScore),
		zap.Int("words", result.Words))

	return result
}

func (s *KeywordScorer) weightOf(g group) int {
	if g.highWeight {
		return s.weights.HighWeight
	}
	return s.weights.BaseWeight
}

func (s *KeywordScorer) decideWeighted(text string, result *core.KeywordScore) {
	w := s.weights
	if result.Words < w.ShortTextWords {
		result.UnproductiveScore += w.ShortTextPenalty
	}
	if result.ProductiveScore > 0 && strings.ContainsAny(text, "?!") {
		result.ProductiveScore += w.PunctuationBonus
	}

	switch {
	case result.ProductiveScore > result.UnproductiveScore:
		result.Category = core.Productive
	case result.UnproductiveScore > result.ProductiveScore:
		result.Category = core.Unproductive
	case result.Words > w.LongTextWords:
		result.Category = core.Productive
	default:
		result.Category = core.Unproductive
	}
}

func (s *KeywordScorer) decideSimple(folded string, result *core.KeywordScore) {
	hits := s.simple.Find(folded)
	result.ProductiveScore = len(hits)
	result.UnproductiveScore = 0
	if len(hits) > 0 {
		result.Category = core.Productive
		return
	}
	result.Category = core.Unproductive
}
