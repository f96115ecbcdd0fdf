package ports

import (
	"context"

	"github.com/mikey/email-triage/internal/core"
)

// EmailFilter is a long-running or one-shot mail intake that triages messages
type EmailFilter interface {
	// ProcessEmail triages an email and returns the analysis
	ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
