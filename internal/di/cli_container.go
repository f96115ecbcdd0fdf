package di

import (
	"io"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/filter"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/factory"
	"github.com/mikey/email-triage/internal/logging"
	"github.com/mikey/email-triage/internal/mailbox"
	"github.com/mikey/email-triage/internal/utils"
)

// CLIFlags contains the command line flags of the CLI application
type CLIFlags struct {
	ConfigFile string
	Provider   string
	Style      string
	Verbose    bool
	JSONLog    bool
	Seed       uint64

	// Output receives the printed reports
	Output io.Writer
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := loadCLIConfig(flags)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register triage service without a verdict cache
	if err := container.Provide(func(
		f *factory.PipelineFactory,
		backend *core.InferenceBackend,
		textProcessor *utils.TextProcessor,
	) (*core.TriageService, error) {
		return f.CreateTriageService(backend, nil, core.NopMetrics(), textProcessor)
	}); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory, flags *CLIFlags) *filter.CliFilter {
		return f.CreateCliFilter(flags.Output, core.ParseStyle(flags.Style), flags.Verbose)
	}); err != nil {
		return nil, err
	}

	// Register IMAP reader
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*mailbox.IMAPReader, error) {
		imapCfg, err := cfg.GetIMAP()
		if err != nil {
			return nil, err
		}
		return newIMAPReader(imapCfg, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// loadCLIConfig reads the configuration file, if any, and applies the flags on top
func loadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigFile != "" {
		cfg, err = config.NewFromFile(flags.ConfigFile)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}

	if flags.Provider != "" {
		cfg.Set("inference.provider", flags.Provider)
	}
	if flags.Seed != 0 {
		cfg.Set("templates.seed", flags.Seed)
	}
	cfg.Set("cache.enabled", false)
	return cfg, nil
}
