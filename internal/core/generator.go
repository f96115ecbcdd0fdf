package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// lastResortReply is used only if a template table is empty
const lastResortReply = "Obrigado pelo seu contato. Sua mensagem foi recebida."

// GenerationConfig bounds model-generated replies
type GenerationConfig struct {
	MaxLength         int
	DetailedMaxLength int
	NumBeams          int
	Temperature       *float32
	// MinLength is the shortest trimmed output, in characters, accepted from the model
	MinLength int
	// MaxInputChars caps the email text embedded in the prompt
	MaxInputChars int
}

// DefaultGenerationConfig returns the generation defaults
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxLength:         64,
		DetailedMaxLength: 160,
		NumBeams:          2,
		MinLength:         20,
		MaxInputChars:     4096,
	}
}

// ResponseGenerator produces suggested replies.
// Model output is used when the generation sub-model is loaded and returns
// usable text; otherwise a template is drawn at random.
type ResponseGenerator struct {
	backend   *InferenceBackend
	templates TemplateBank
	random    RandomSource
	text      *utils.TextProcessor
	cfg       GenerationConfig
	metrics   Metrics
	logger    *zap.Logger
}

// NewResponseGenerator creates a new response generator
func NewResponseGenerator(
	backend *InferenceBackend,
	templates TemplateBank,
	random RandomSource,
	text *utils.TextProcessor,
	cfg GenerationConfig,
	metrics Metrics,
	logger *zap.Logger,
) *ResponseGenerator {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &ResponseGenerator{
		backend:   backend,
		templates: templates,
		random:    random,
		text:      text,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// Generate returns a non-empty reply for the email. It never fails.
func (g *ResponseGenerator) Generate(ctx context.Context, text string, category Category, style Style, senderName string) ReplySuggestion {
	if _, ok := ParseCategory(string(category)); !ok {
		category = Unproductive
	}
	if !knownStyle(style) {
		style = StyleStandard
	}

	if g.backend.GeneratorAvailable() {
		reply, err := g.generateWithModel(ctx, text, category, style, senderName)
		if err == nil {
			g.metrics.Replied(reply.Source, style)
			return reply
		}
		reason := "error"
		if errors.Is(err, ErrGenerationDegenerate) {
			reason = "degenerate"
		}
		g.logger.Warn("Reply generation fell back to templates",
			zap.String("model", g.backend.GeneratorName()),
			zap.String("reason", reason),
			zap.Error(err))
		g.metrics.Fallback("generate", reason)
	}

	reply := g.fromTemplates(category, style, senderName)
	g.metrics.Replied(reply.Source, style)
	return reply
}

func (g *ResponseGenerator) generateWithModel(ctx context.Context, text string, category Category, style Style, senderName string) (ReplySuggestion, error) {
	body := g.text.ProcessText(text, g.cfg.MaxInputChars)
	prompt := BuildPrompt(body, category, style, senderName)

	params := GenerationParams{
		MaxLength:   g.cfg.MaxLength,
		NumBeams:    g.cfg.NumBeams,
		Temperature: g.cfg.Temperature,
	}
	if style == StyleDetailed && g.cfg.DetailedMaxLength > 0 {
		params.MaxLength = g.cfg.DetailedMaxLength
	}

	start := time.Now()
	out, err := g.backend.Generate(ctx, prompt, params)
	g.metrics.InferenceDuration("generate", time.Since(start))
	if err != nil {
		return ReplySuggestion{}, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}

	out = strings.TrimSpace(out)
	if len([]rune(out)) < g.cfg.MinLength {
		return ReplySuggestion{}, fmt.Errorf("%w: got %d characters", ErrGenerationDegenerate, len([]rune(out)))
	}

	return ReplySuggestion{
		Text:      out,
		Style:     style,
		Source:    SourceModel,
		ModelUsed: g.backend.GeneratorName(),
	}, nil
}

func (g *ResponseGenerator) fromTemplates(category Category, style Style, senderName string) ReplySuggestion {
	reply := ReplySuggestion{
		Text:      lastResortReply,
		Style:     style,
		Source:    SourceTemplate,
		ModelUsed: SourceTemplate,
	}
	candidates := g.templates.Candidates(category, style, senderName)
	if len(candidates) > 0 {
		reply.Text = candidates[g.random.IntN(len(candidates))]
	}
	return reply
}

func knownStyle(style Style) bool {
	for _, s := range Styles {
		if s == style {
			return true
		}
	}
	return false
}
