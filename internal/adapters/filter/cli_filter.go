package filter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/mailbox"
	"go.uber.org/zap"
)

// CliFilter triages single messages and prints a readable report
type CliFilter struct {
	service *core.TriageService
	out     io.Writer
	style   core.Style
	verbose bool
	logger  *zap.Logger
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.TriageService, out io.Writer, style core.Style, verbose bool, logger *zap.Logger) *CliFilter {
	return &CliFilter{
		service: service,
		out:     out,
		style:   style,
		verbose: verbose,
		logger:  logger,
	}
}

// ProcessEmail analyzes an email and prints the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Fprintf(f.out, "=== Email Summary ===\n")
	if email.From != "" {
		fmt.Fprintf(f.out, "From: %s\n", email.From)
	}
	if len(email.To) > 0 {
		fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	}
	if email.Subject != "" {
		fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	}
	fmt.Fprintf(f.out, "Body length: %d characters\n", len([]rune(email.Body)))
	if f.verbose {
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", mailbox.Preview(email.Body))
	}

	result, err := f.service.AnalyzeEmail(ctx, email, f.style)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		return nil, err
	}

	f.PrintResult(result)
	return result, nil
}

// PrintResult writes the report of an analysis
func (f *CliFilter) PrintResult(result *core.AnalysisResult) {
	c := result.Classification
	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Category: %s (%s confidence, %s)\n", c.Category, c.Confidence, c.Source)
	if c.ModelUsed != "" {
		fmt.Fprintf(f.out, "Model used: %s\n", c.ModelUsed)
	}
	fmt.Fprintf(f.out, "Urgency: %s\n", result.Insights.Urgency)
	fmt.Fprintf(f.out, "Tone: %s\n", result.Insights.Tone)
	if len(result.Insights.MatchedKeywords) > 0 {
		fmt.Fprintf(f.out, "Keywords: %s\n", strings.Join(result.Insights.MatchedKeywords, ", "))
	}
	fmt.Fprintf(f.out, "\n=== Suggested Reply (%s, %s) ===\n%s\n", result.Reply.Style, result.Reply.Source, result.Reply.Text)
	if f.verbose {
		fmt.Fprintf(f.out, "\nProcessing time: %v\n", result.Duration)
	}
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
