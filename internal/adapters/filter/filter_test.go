package filter

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/scoring"
	"github.com/mikey/email-triage/internal/sender"
	"github.com/mikey/email-triage/internal/templates"
	"github.com/mikey/email-triage/internal/utils"
)

const urgentMessage = "From: Ana Souza <ana@example.com>\r\n" +
	"To: suporte@example.org\r\n" +
	"Subject: Contrato urgente\r\n" +
	"\r\n" +
	"Preciso da revisão do contrato hoje, é urgente.\r\n"

func newTestService() *core.TriageService {
	backend := core.NoBackend()
	scorer := scoring.NewKeywordScorer(scoring.StrategyWeighted, scoring.DefaultWeights(), nil)
	text := utils.NewTextProcessor(nil)
	classifier := core.NewClassifier(backend, scorer, text, zap.NewNop())
	generator := core.NewResponseGenerator(backend, templates.NewBank(), core.NewRandomSource(1), text,
		core.DefaultGenerationConfig(), nil, zap.NewNop())
	insights := core.NewInsightExtractor(classifier, scorer, text, zap.NewNop())
	return core.NewTriageService(classifier, generator, insights, zap.NewNop(), 2)
}

type captured struct {
	from string
	to   []string
	data string
}

type captureBackend struct {
	messages chan captured
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

type captureSession struct {
	backend *captureBackend
	msg     captured
}

func (s *captureSession) Reset()        { s.msg = captured{} }
func (s *captureSession) Logout() error { return nil }

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.msg.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.msg.to = append(s.msg.to, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.data = string(b)
	s.backend.messages <- s.msg
	return nil
}

// startPostfix runs a stand-in for the Postfix re-injection listener
func startPostfix(t *testing.T) (host string, port int, messages chan captured) {
	t.Helper()
	messages = make(chan captured, 1)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := smtp.NewServer(&captureBackend{messages: messages})
	server.Domain = "localhost"
	server.AllowInsecureAuth = true
	go server.Serve(ln)
	t.Cleanup(func() { server.Close() })

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, messages
}

func startFilter(t *testing.T, skipDomains []string) (*PostfixFilter, chan captured) {
	t.Helper()
	host, port, messages := startPostfix(t)

	f := NewPostfixFilter(newTestService(), sender.NewChecker(skipDomains, zap.NewNop()), config.FilterConfig{
		ListenAddress:  "127.0.0.1:0",
		Timeout:        5 * time.Second,
		PostfixEnabled: true,
		PostfixAddress: host,
		PostfixPort:    port,
		CategoryHeader: "X-Triage-Category",
		UrgencyHeader:  "X-Triage-Urgency",
		ToneHeader:     "X-Triage-Tone",
	}, zap.NewNop())
	require.NoError(t, f.Start())
	t.Cleanup(func() { f.Stop() })
	return f, messages
}

func receive(t *testing.T, messages chan captured) captured {
	t.Helper()
	select {
	case msg := <-messages:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("message was not re-injected")
		return captured{}
	}
}

// submit relays a message over plain SMTP, as Postfix does to a content filter
func submit(t *testing.T, addr, from string, to []string, message string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	require.NoError(t, err)

	c := smtp.NewClient(conn)
	defer c.Close()

	require.NoError(t, c.Hello("localhost"))
	require.NoError(t, c.Mail(from, nil))
	for _, rcpt := range to {
		require.NoError(t, c.Rcpt(rcpt, nil))
	}
	wc, err := c.Data()
	require.NoError(t, err)
	_, err = io.WriteString(wc, message)
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, c.Quit())
}

func TestPostfixFilterAddsTriageHeaders(t *testing.T) {
	f, messages := startFilter(t, nil)

	submit(t, f.Addr(), "ana@example.com", []string{"suporte@example.org"}, urgentMessage)

	msg := receive(t, messages)
	assert.Equal(t, "ana@example.com", msg.from)
	assert.Equal(t, []string{"suporte@example.org"}, msg.to)
	assert.Contains(t, msg.data, "X-Triage-Category: Productive; confidence=high")
	assert.Contains(t, msg.data, "X-Triage-Urgency: high")
	assert.Contains(t, msg.data, "X-Triage-Tone: urgent")
	assert.Contains(t, msg.data, "Subject: Contrato urgente")
	assert.Contains(t, msg.data, "Preciso da revisão do contrato hoje")
}

func TestPostfixFilterSkipsListedDomains(t *testing.T) {
	f, messages := startFilter(t, []string{"example.com"})

	submit(t, f.Addr(), "ana@mail.example.com", []string{"suporte@example.org"}, urgentMessage)

	msg := receive(t, messages)
	assert.NotContains(t, msg.data, "X-Triage-Category")
	assert.Contains(t, msg.data, "Subject: Contrato urgente")
}

func TestAnnotateDropsLineBreaksAndEmptyNames(t *testing.T) {
	f := NewPostfixFilter(newTestService(), nil, config.FilterConfig{
		CategoryHeader: "X-Triage-Category",
		UrgencyHeader:  "",
		ToneHeader:     "X-Triage-Tone",
	}, zap.NewNop())

	headers := string(f.annotate(core.InsightRecord{
		Category:   core.Unproductive,
		Confidence: "low",
		Urgency:    core.UrgencyLow,
		Tone:       "neutral\r\nBcc: someone@example.com",
	}))
	assert.Equal(t,
		"X-Triage-Category: Unproductive; confidence=low\r\nX-Triage-Tone: neutral  Bcc: someone@example.com\r\n",
		headers)
}

func TestCliFilterPrintsReport(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(), &out, core.StyleObjective, false, zap.NewNop())

	result, err := f.ProcessEmail(context.Background(), &core.Email{
		From:     "Ana Souza <ana@example.com>",
		FromName: "Ana Souza",
		Subject:  "Contrato urgente",
		Body:     "Preciso da revisão do contrato hoje, é urgente.",
	})
	require.NoError(t, err)
	assert.Equal(t, core.Productive, result.Classification.Category)

	report := out.String()
	assert.Contains(t, report, "Subject: Contrato urgente")
	assert.Contains(t, report, "Category: Productive (high confidence, keywords)")
	assert.Contains(t, report, "Urgency: high")
	assert.Contains(t, report, "=== Suggested Reply (Objective, template) ===")
	assert.Contains(t, report, "Ana Souza")
}

func TestCliFilterRejectsEmptyEmail(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(newTestService(), &out, core.StyleStandard, false, zap.NewNop())

	_, err := f.ProcessEmail(context.Background(), &core.Email{Body: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyText)
}
