package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/cache"
	"github.com/mikey/email-triage/internal/adapters/httpapi"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/extract"
	"github.com/mikey/email-triage/internal/factory"
	"github.com/mikey/email-triage/internal/logging"
	"github.com/mikey/email-triage/internal/mailbox"
	"github.com/mikey/email-triage/internal/metrics"
	"github.com/mikey/email-triage/internal/ports"
	"github.com/mikey/email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(func(backend *core.InferenceBackend) *metrics.Metrics {
		m := metrics.New()
		m.SetBackend(backend)
		return m
	}); err != nil {
		return nil, err
	}

	// Register verdict cache
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (*cache.MemoryCache, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		f *factory.PipelineFactory,
		backend *core.InferenceBackend,
		verdicts *cache.MemoryCache,
		m *metrics.Metrics,
		textProcessor *utils.TextProcessor,
	) (*core.TriageService, error) {
		var repo core.CacheRepository
		if verdicts != nil {
			repo = verdicts
		}
		return f.CreateTriageService(backend, repo, m, textProcessor)
	}); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	// Register HTTP API server
	if err := container.Provide(newHTTPServer); err != nil {
		return nil, err
	}

	return container, nil
}

// providePipeline registers the components shared by the server and the CLI
func providePipeline(container *dig.Container) error {
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.PipelineFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register inference backend
	if err := container.Provide(factory.NewInferenceFactory); err != nil {
		return err
	}
	return container.Provide(func(f *factory.InferenceFactory) (*core.InferenceBackend, error) {
		return f.Load(context.Background())
	})
}

func newHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.TriageService,
	backend *core.InferenceBackend,
	textProcessor *utils.TextProcessor,
	m *metrics.Metrics,
) (*httpapi.Server, error) {
	serverCfg, err := cfg.GetServer()
	if err != nil {
		return nil, err
	}
	imapCfg, err := cfg.GetIMAP()
	if err != nil {
		return nil, err
	}
	gmailCfg := cfg.GetGmail()

	deps := httpapi.Deps{
		Service:   service,
		Backend:   backend,
		Extractor: extract.NewExtractor(serverCfg.MaxUploadBytes, textProcessor, logger),
		IMAP:      newIMAPReader(imapCfg, logger),
		Gmail:     mailbox.NewGmailClient(gmailCfg.Endpoint, logger),
		Metrics:   m,
		Logger:    logger,
	}
	return httpapi.NewServer(deps, serverCfg, imapCfg, gmailCfg), nil
}

func newIMAPReader(cfg config.IMAPConfig, logger *zap.Logger) *mailbox.IMAPReader {
	return mailbox.NewIMAPReader(mailbox.IMAPConfig{
		DefaultServer: cfg.DefaultServer,
		Port:          cfg.Port,
		Folder:        cfg.Folder,
		TLS:           cfg.TLS,
		DialTimeout:   cfg.DialTimeout,
	}, logger)
}
