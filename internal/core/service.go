package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyzeRequest is a single email submitted for triage
type AnalyzeRequest struct {
	Text       string
	Style      Style
	SenderName string
}

// BatchItem is the outcome of one email in a batch
type BatchItem struct {
	Index   int
	Preview string
	Result  *AnalysisResult
	Err     error
}

// TriageService is the pipeline facade used by every adapter
type TriageService struct {
	classifier       *Classifier
	generator        *ResponseGenerator
	insights         *InsightExtractor
	logger           *zap.Logger
	batchConcurrency int
}

// NewTriageService creates a new triage service
func NewTriageService(
	classifier *Classifier,
	generator *ResponseGenerator,
	insights *InsightExtractor,
	logger *zap.Logger,
	batchConcurrency int,
) *TriageService {
	if batchConcurrency <= 0 {
		batchConcurrency = 1
	}
	return &TriageService{
		classifier:       classifier,
		generator:        generator,
		insights:         insights,
		logger:           logger,
		batchConcurrency: batchConcurrency,
	}
}

// Classify returns the category of text
func (s *TriageService) Classify(ctx context.Context, text string) ClassificationResult {
	return s.classifier.Classify(ctx, text)
}

// SuggestResponse returns a reply for an already classified email
func (s *TriageService) SuggestResponse(ctx context.Context, text string, category Category, style Style, senderName string) ReplySuggestion {
	return s.generator.Generate(ctx, text, category, style, senderName)
}

// GetInsights returns the auxiliary signals of an email
func (s *TriageService) GetInsights(ctx context.Context, text string) InsightRecord {
	return s.insights.Insights(ctx, text)
}

// Analyze classifies an email, suggests a reply and extracts insights
func (s *TriageService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	classification := s.classifier.Classify(ctx, req.Text)
	reply := s.generator.Generate(ctx, req.Text, classification.Category, req.Style, req.SenderName)
	insights := s.insights.FromClassification(req.Text, classification)

	result := &AnalysisResult{
		Classification: classification,
		Reply:          reply,
		Insights:       insights,
		TextLength:     len([]rune(req.Text)),
		AnalyzedAt:     time.Now(),
		Duration:       time.Since(start),
	}

	s.logger.Info("Email analyzed",
		zap.String("category", string(classification.Category)),
		zap.String("classification_source", classification.Source),
		zap.String("reply_source", reply.Source),
		zap.String("style", string(reply.Style)),
		zap.Int("text_length", result.TextLength),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// AnalyzeEmail analyzes a mailbox message, addressing the reply to its sender
func (s *TriageService) AnalyzeEmail(ctx context.Context, email *Email, style Style) (*AnalysisResult, error) {
	return s.Analyze(ctx, AnalyzeRequest{
		Text:       email.Text(),
		Style:      style,
		SenderName: email.FromName,
	})
}

// AnalyzeBatch analyzes texts concurrently. Blank texts are skipped, and the
// returned items keep the input order.
func (s *TriageService) AnalyzeBatch(ctx context.Context, texts []string, style Style, senderName string) []BatchItem {
	slots := make([]*BatchItem, len(texts))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		g.Go(func() error {
			result, err := s.Analyze(gCtx, AnalyzeRequest{Text: text, Style: style, SenderName: senderName})
			slots[i] = &BatchItem{Index: i, Preview: Preview(text, 50), Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	items := make([]BatchItem, 0, len(texts))
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}
	s.logger.Info("Batch analyzed", zap.Int("submitted", len(texts)), zap.Int("analyzed", len(items)))
	return items
}

// Preview shortens text to n runes, appending an ellipsis when cut
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
