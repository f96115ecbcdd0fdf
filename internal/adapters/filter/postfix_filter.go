package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/mailbox"
	"github.com/mikey/email-triage/internal/sender"
	"go.uber.org/zap"
)

// PostfixFilter is a Postfix after-queue content filter. Every relayed
// message is annotated with triage headers and re-injected into Postfix.
// Triage never blocks delivery.
type PostfixFilter struct {
	service *core.TriageService
	skip    *sender.Checker
	cfg     config.FilterConfig
	logger  *zap.Logger

	mu       sync.Mutex
	server   *smtp.Server
	listener net.Listener
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.TriageService,
	skip *sender.Checker,
	cfg config.FilterConfig,
	logger *zap.Logger,
) *PostfixFilter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 30 * 1024 * 1024
	}
	return &PostfixFilter{
		service: service,
		skip:    skip,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start starts the content filter
func (f *PostfixFilter) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	server := smtp.NewServer(&smtpBackend{filter: f})
	server.Addr = f.cfg.ListenAddress
	server.Domain = "localhost"
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = f.cfg.MaxMessageBytes
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true

	f.mu.Lock()
	f.server = server
	f.listener = ln
	f.mu.Unlock()

	f.logger.Info("Postfix filter starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := server.Serve(ln); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address once started
func (f *PostfixFilter) Addr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return ""
	}
	return f.listener.Addr().String()
}

// Stop stops the content filter
func (f *PostfixFilter) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail runs the full triage pipeline on a message
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error) {
	return f.service.AnalyzeEmail(ctx, email, core.StyleStandard)
}

// annotate returns the headers added to a message for its insights
func (f *PostfixFilter) annotate(insights core.InsightRecord) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, f.cfg.CategoryHeader, string(insights.Category)+"; confidence="+insights.Confidence)
	writeHeader(&buf, f.cfg.UrgencyHeader, insights.Urgency)
	writeHeader(&buf, f.cfg.ToneHeader, insights.Tone)
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, name, value string) {
	if name == "" {
		return
	}
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	fmt.Fprintf(buf, "%s: %s\r\n", name, value)
}

// sendToPostfix re-injects the message into Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(from string, recipients []string, data []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.PostfixAddress, fmt.Sprint(f.cfg.PostfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// The message is already queued at this point
	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	from       string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.from = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data annotates the message and forwards it
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter
	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	out := raw
	if headers := s.triage(raw); len(headers) > 0 {
		out = append(headers, raw...)
	}

	if !f.cfg.PostfixEnabled {
		f.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
		return nil
	}
	if err := f.sendToPostfix(s.from, s.recipients, out); err != nil {
		f.logger.Error("Failed to send email back to Postfix", zap.Error(err), zap.String("sender", s.from))
		return err
	}
	return nil
}

// triage returns the headers to prepend, or nil when the message is left as is
func (s *smtpSession) triage(raw []byte) []byte {
	f := s.filter
	if f.skip != nil && f.skip.Matches(s.from) {
		f.logger.Debug("Skipping triage for sender", zap.String("sender", s.from))
		return nil
	}

	email, err := mailbox.ParseMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Warn("Failed to parse message, forwarding unchanged", zap.Error(err), zap.String("sender", s.from))
		return nil
	}
	if email.From == "" {
		email.From = s.from
	}
	email.To = s.recipients

	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.Timeout)
	defer cancel()
	insights := f.service.GetInsights(ctx, email.Text())

	f.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", sender.Parse(email.From).Domain),
		zap.String("category", string(insights.Category)),
		zap.String("urgency", insights.Urgency),
		zap.String("tone", insights.Tone))

	return f.annotate(insights)
}

func (s *smtpSession) Logout() error {
	return nil
}
