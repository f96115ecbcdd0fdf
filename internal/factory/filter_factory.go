package factory

import (
	"io"

	"github.com/mikey/email-triage/internal/adapters/filter"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/ports"
	"github.com/mikey/email-triage/internal/sender"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.TriageService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.TriageService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates the Postfix content filter. It is only started
// when filter.enabled is set.
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterCfg, err := f.cfg.GetFilter()
	if err != nil {
		return nil, err
	}
	skip := sender.NewChecker(filterCfg.SkipDomains, f.logger)
	return filter.NewPostfixFilter(f.service, skip, filterCfg, f.logger), nil
}

// CreateCliFilter creates a filter that prints reports to out
func (f *FilterFactory) CreateCliFilter(out io.Writer, style core.Style, verbose bool) *filter.CliFilter {
	return filter.NewCliFilter(f.service, out, style, verbose, f.logger)
}
