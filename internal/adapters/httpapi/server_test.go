package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/extract"
	"github.com/mikey/email-triage/internal/mailbox"
	"github.com/mikey/email-triage/internal/metrics"
	"github.com/mikey/email-triage/internal/scoring"
	"github.com/mikey/email-triage/internal/templates"
	"github.com/mikey/email-triage/internal/utils"
)

type fakeIMAP struct {
	emails []*core.Email
	err    error
	creds  mailbox.IMAPCredentials
	max    int
}

func (f *fakeIMAP) FetchUnread(ctx context.Context, creds mailbox.IMAPCredentials, max int) ([]*core.Email, error) {
	f.creds = creds
	f.max = max
	return f.emails, f.err
}

type fakeGmail struct {
	messages []mailbox.GmailMessage
	sent     []mailbox.Reply
	failTo   string
}

func (f *fakeGmail) FetchLatest(ctx context.Context, accessToken string, maxResults int64) ([]mailbox.GmailMessage, error) {
	return f.messages, nil
}

func (f *fakeGmail) SendReply(ctx context.Context, accessToken string, reply mailbox.Reply) (string, error) {
	if reply.ToEmail == f.failTo {
		return "", errors.New("recipient rejected")
	}
	f.sent = append(f.sent, reply)
	return "msg-" + reply.ToEmail, nil
}

type testEnv struct {
	server  *Server
	handler http.Handler
	imap    *fakeIMAP
	gmail   *fakeGmail
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, mutate func(*config.ServerConfig)) *testEnv {
	t.Helper()

	backend := core.NoBackend()
	scorer := scoring.NewKeywordScorer(scoring.StrategyWeighted, scoring.DefaultWeights(), nil)
	text := utils.NewTextProcessor(nil)
	classifier := core.NewClassifier(backend, scorer, text, zap.NewNop())
	generator := core.NewResponseGenerator(backend, templates.NewBank(), core.NewRandomSource(3), text,
		core.DefaultGenerationConfig(), nil, zap.NewNop())
	insights := core.NewInsightExtractor(classifier, scorer, text, zap.NewNop())

	serverCfg := config.ServerConfig{APIPrefix: "/api/v1", BatchLimit: 50, MaxUploadBytes: 1024}
	if mutate != nil {
		mutate(&serverCfg)
	}

	env := &testEnv{imap: &fakeIMAP{}, gmail: &fakeGmail{}, metrics: metrics.New()}
	env.server = NewServer(Deps{
		Service:   core.NewTriageService(classifier, generator, insights, zap.NewNop(), 2),
		Backend:   backend,
		Extractor: extract.NewExtractor(serverCfg.MaxUploadBytes, text, zap.NewNop()),
		IMAP:      env.imap,
		Gmail:     env.gmail,
		Metrics:   env.metrics,
		Logger:    zap.NewNop(),
	}, serverCfg, config.IMAPConfig{MaxEmails: 5}, config.GmailConfig{MaxResults: 10})
	env.handler = env.server.Router()
	return env
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (e *testEnv) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("style", "formal"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAnalyzeText(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postForm("/api/v1/analyze", url.Values{
		"text":        {"Preciso do relatório do projeto hoje, é urgente"},
		"style":       {"objective"},
		"sender_name": {"Ana"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[analysisResponse](t, rec)
	assert.Equal(t, core.Productive, resp.Category)
	assert.Contains(t, resp.Suggestion, "Ana")
	assert.Equal(t, 47, resp.Metadata.TextLength)
	assert.Equal(t, core.StyleObjective, resp.Metadata.Style)
	assert.Equal(t, core.SourceTemplate, resp.Metadata.ReplySource)
	assert.Equal(t, core.SourceKeywords, resp.Metadata.ModelUsed)
	assert.Nil(t, resp.Metadata.FileInfo)
	assert.False(t, resp.Metadata.ProcessedAt.IsZero())
}

func TestAnalyzeRejectsMissingAndEmptyText(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postForm("/api/v1/analyze", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no text or file was sent", decode[errorResponse](t, rec).Detail)

	rec = env.postForm("/api/v1/analyze", url.Values{"text": {"  \n\t "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, core.ErrEmptyText.Error(), decode[errorResponse](t, rec).Detail)
}

func TestAnalyzeUpload(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.upload(t, "email.txt", "Feliz aniversário! Um grande abraço.")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[analysisResponse](t, rec)
	assert.Equal(t, core.Unproductive, resp.Category)
	assert.Equal(t, core.StyleFormal, resp.Metadata.Style)
	require.NotNil(t, resp.Metadata.FileInfo)
	assert.Equal(t, "email.txt", resp.Metadata.FileInfo.Filename)
}

func TestAnalyzeUploadErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.upload(t, "email.docx", "conteúdo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, extract.ErrUnsupportedFile.Error(), decode[errorResponse](t, rec).Detail)

	rec = env.upload(t, "email.txt", strings.Repeat("a", 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBatchAnalyze(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON("/api/v1/batch-analyze", `["Reunião urgente amanhã às 10h", "  ", "Feliz aniversário!"]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[batchResponse](t, rec)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0, resp.Results[0].Index)
	assert.Equal(t, core.Productive, resp.Results[0].Category)
	assert.Equal(t, "success", resp.Results[0].Status)
	assert.Equal(t, 2, resp.Results[1].Index)
	assert.Equal(t, core.Unproductive, resp.Results[1].Category)
	assert.Equal(t, 3, resp.Summary.Total)
	assert.Equal(t, 2, resp.Summary.Successful)
	assert.Equal(t, 0, resp.Summary.Failed)
}

func TestBatchAnalyzeObjectForm(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON("/api/v1/batch-analyze",
		`{"emails": ["Segue a proposta para aprovação do contrato."], "style": "objective", "sender_name": "Bruno"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[batchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results[0].Suggestion, "Bruno")
}

func TestBatchAnalyzeLimits(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.ServerConfig) { cfg.BatchLimit = 2 })

	rec := env.postJSON("/api/v1/batch-analyze", `["um", "dois", "três"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "at most 2 emails per request", decode[errorResponse](t, rec).Detail)

	rec = env.postJSON("/api/v1/batch-analyze", `{"emails": 12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsights(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postJSON("/api/v1/insights", `{"text": "Feliz aniversário!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	record := decode[core.InsightRecord](t, rec)
	assert.Equal(t, core.Unproductive, record.Category)
	assert.Equal(t, core.TonePositive, record.Tone)
	assert.Equal(t, core.UrgencyNormal, record.Urgency)

	rec = env.postForm("/api/v1/insights", url.Values{"text": {"Reunião urgente amanhã às 10h"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.UrgencyHigh, decode[core.InsightRecord](t, rec).Urgency)

	rec = env.postJSON("/api/v1/insights", `{"text": " "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogueEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get("/api/v1/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decode[struct {
		Categories   []string          `json:"categories"`
		Descriptions map[string]string `json:"descriptions"`
	}](t, rec)
	assert.Equal(t, []string{"Productive", "Unproductive"}, categories.Categories)
	assert.Len(t, categories.Descriptions, 2)

	rec = env.get("/api/v1/styles")
	require.Equal(t, http.StatusOK, rec.Code)
	styles := decode[struct {
		Styles  []string `json:"styles"`
		Default string   `json:"default"`
	}](t, rec)
	assert.Len(t, styles.Styles, 5)
	assert.Equal(t, "Standard", styles.Default)

	rec = env.get("/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["backend"].(map[string]any)["classifier"])
}

func TestAutoAnalyze(t *testing.T) {
	env := newTestEnv(t, nil)
	env.imap.emails = []*core.Email{
		{ID: "1", From: "ana@empresa.com", FromName: "Ana", Subject: "Contrato", Body: "Segue o contrato para revisão urgente."},
		{ID: "2", From: "vazio@empresa.com", Body: "   "},
	}

	rec := env.postForm("/api/v1/auto-analyze", url.Values{
		"email_address": {"suporte@empresa.com"},
		"password":      {"app-password"},
		"max_emails":    {"3"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[mailboxResponse](t, rec)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, core.Productive, resp.Results[0].Category)
	assert.Contains(t, resp.Results[0].Suggestion, "Ana")
	assert.Nil(t, resp.Results[0].AlreadyReplied)
	assert.Equal(t, 3, env.imap.max)
	assert.Equal(t, "suporte@empresa.com", env.imap.creds.Address)
}

func TestAutoAnalyzeErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.postForm("/api/v1/auto-analyze", url.Values{"email_address": {"suporte@empresa.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postForm("/api/v1/auto-analyze", url.Values{
		"email_address": {"suporte@empresa.com"}, "password": {"x"}, "max_emails": {"-1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.imap.err = errors.New("login failed")
	rec = env.postForm("/api/v1/auto-analyze", url.Values{"email_address": {"suporte@empresa.com"}, "password": {"x"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Detail, "login failed")
	assert.Equal(t, 5, env.imap.max)
}

func TestGmailAutoAnalyze(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gmail.messages = []mailbox.GmailMessage{
		{Email: &core.Email{ID: "m1", ThreadID: "t1", From: "ana@empresa.com", Subject: "Reunião", Body: "Reunião urgente amanhã às 10h"}, AlreadyReplied: true},
	}

	rec := env.postForm("/api/v1/gmail-auto-analyze", url.Values{"access_token": {"token"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[mailboxResponse](t, rec)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "t1", resp.Results[0].ThreadID)
	require.NotNil(t, resp.Results[0].AlreadyReplied)
	assert.True(t, *resp.Results[0].AlreadyReplied)

	rec = env.postForm("/api/v1/gmail-auto-analyze", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGmailAutoReply(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gmail.failTo = "bounce@empresa.com"

	replies := `[{"to_email": "ana@empresa.com", "subject": "Reunião", "body": "Confirmado.", "thread_id": "t1"},
		{"to_email": "bounce@empresa.com", "subject": "Oi", "body": "Olá"}]`
	rec := env.postForm("/api/v1/gmail-auto-reply", url.Values{"access_token": {"token"}, "replies": {replies}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Results []replyResult `json:"results"`
	}](t, rec)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, replyResult{To: "ana@empresa.com", Status: "sent", ID: "msg-ana@empresa.com"}, resp.Results[0])
	assert.Equal(t, "error", resp.Results[1].Status)
	require.Len(t, env.gmail.sent, 1)
	assert.Equal(t, "t1", env.gmail.sent[0].ThreadID)

	rec = env.postForm("/api/v1/gmail-auto-reply", url.Values{"access_token": {"token"}, "replies": {"not json"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsAndCORS(t *testing.T) {
	env := newTestEnv(t, nil)
	env.get("/api/v1/health")

	rec := env.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `email_triage_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
