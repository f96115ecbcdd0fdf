package core

import (
	"context"

	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

var (
	urgencyPhrases = utils.NewPhraseSet(
		"urgente", "urgência", "urgentemente", "imediato", "imediatamente",
		"asap", "o quanto antes", "crítico", "prazo final", "hoje mesmo",
	)
	lowUrgencyPhrases = utils.NewPhraseSet(
		"sem pressa", "quando puder", "quando possível", "fique à vontade",
		"sem problemas", "com calma", "apenas para informar", "só para informar",
	)
	cordialPhrases = utils.NewPhraseSet(
		"prezado", "prezada", "prezados", "prezadas", "atenciosamente",
		"cordialmente", "por gentileza", "bom dia", "boa tarde", "boa noite",
	)
	problemPhrases = utils.NewPhraseSet(
		"problema", "erro", "falha", "preocupado", "preocupada", "preocupação",
		"reclamação", "insatisfeito", "insatisfeita", "fora do ar", "defeito",
	)
	positivePhrases = utils.NewPhraseSet(
		"obrigado", "obrigada", "parabéns", "excelente", "ótimo", "ótima",
		"feliz", "agradeço", "adorei", "maravilhoso",
	)
)

// InsightExtractor derives urgency, tone and keyword evidence from an email.
// It is independent of reply generation.
type InsightExtractor struct {
	classifier *Classifier
	scorer     Scorer
	text       *utils.TextProcessor
	logger     *zap.Logger
}

// NewInsightExtractor creates a new insight extractor
func NewInsightExtractor(classifier *Classifier, scorer Scorer, text *utils.TextProcessor, logger *zap.Logger) *InsightExtractor {
	return &InsightExtractor{
		classifier: classifier,
		scorer:     scorer,
		text:       text,
		logger:     logger,
	}
}

// Insights classifies text and extracts its auxiliary signals
func (e *InsightExtractor) Insights(ctx context.Context, text string) InsightRecord {
	return e.FromClassification(text, e.classifier.Classify(ctx, text))
}

// FromClassification extracts signals for an already classified text
func (e *InsightExtractor) FromClassification(text string, classification ClassificationResult) InsightRecord {
	normalized := e.text.Normalize(text)
	folded := utils.Fold(normalized)
	score := e.scorer.Score(normalized)

	matched := score.ProductiveHits
	if classification.Category != Productive {
		matched = score.CasualHits
	}
	if matched == nil {
		matched = []string{}
	}

	record := InsightRecord{
		Category:        classification.Category,
		Confidence:      classification.Confidence,
		MatchedKeywords: matched,
		Tone:            toneOf(folded),
		Urgency:         urgencyOf(folded),
	}

	e.logger.Debug("Extracted insights",
		zap.String("category", string(record.Category)),
		zap.String("tone", record.Tone),
		zap.String("urgency", record.Urgency),
		zap.Int("matched_keywords", len(record.MatchedKeywords)))

	return record
}

func urgencyOf(folded string) string {
	switch {
	case urgencyPhrases.Any(folded):
		return UrgencyHigh
	case lowUrgencyPhrases.Any(folded):
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}

func toneOf(folded string) string {
	switch {
	case cordialPhrases.Any(folded):
		return ToneCordial
	case urgencyPhrases.Any(folded):
		return ToneUrgent
	case problemPhrases.Any(folded):
		return ToneConcerned
	case positivePhrases.Any(folded):
		return TonePositive
	default:
		return ToneNeutral
	}
}
