// Package httpapi exposes the triage pipeline over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/extract"
	"github.com/mikey/email-triage/internal/mailbox"
	"github.com/mikey/email-triage/internal/metrics"
	"go.uber.org/zap"
)

const (
	serviceName    = "Email Triage API"
	serviceVersion = "1.0.0"
)

// UnreadFetcher reads unread messages from an IMAP mailbox
type UnreadFetcher interface {
	FetchUnread(ctx context.Context, creds mailbox.IMAPCredentials, max int) ([]*core.Email, error)
}

// GmailAPI reads and answers Gmail messages on behalf of a user token
type GmailAPI interface {
	FetchLatest(ctx context.Context, accessToken string, maxResults int64) ([]mailbox.GmailMessage, error)
	SendReply(ctx context.Context, accessToken string, reply mailbox.Reply) (string, error)
}

// Deps are the collaborators of the HTTP server. Metrics may be nil.
type Deps struct {
	Service   *core.TriageService
	Backend   *core.InferenceBackend
	Extractor *extract.Extractor
	IMAP      UnreadFetcher
	Gmail     GmailAPI
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Server is the HTTP API server
type Server struct {
	Deps
	cfg        config.ServerConfig
	imapCfg    config.IMAPConfig
	gmailCfg   config.GmailConfig
	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new HTTP API server
func NewServer(deps Deps, cfg config.ServerConfig, imapCfg config.IMAPConfig, gmailCfg config.GmailConfig) *Server {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 * 1024 * 1024
	}
	if imapCfg.MaxEmails <= 0 {
		imapCfg.MaxEmails = 5
	}
	if gmailCfg.MaxResults <= 0 {
		gmailCfg.MaxResults = 10
	}
	return &Server{
		Deps:     deps,
		cfg:      cfg,
		imapCfg:  imapCfg,
		gmailCfg: gmailCfg,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	if s.cfg.APIPrefix == "" || s.cfg.APIPrefix == "/" {
		s.routes(r)
	} else {
		r.Route(s.cfg.APIPrefix, s.routes)
	}

	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/categories", s.handleCategories)
	r.Get("/styles", s.handleStyles)

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/batch-analyze", s.handleBatchAnalyze)
		r.Post("/insights", s.handleInsights)
		r.Post("/auto-analyze", s.handleAutoAnalyze)
		r.Post("/gmail-auto-analyze", s.handleGmailAutoAnalyze)
		r.Post("/gmail-auto-reply", s.handleGmailAutoReply)
	})
}

// Start serves the API until Shutdown is called
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.Logger.Info("HTTP API starting",
		zap.String("address", s.cfg.ListenAddress),
		zap.String("prefix", s.cfg.APIPrefix))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
