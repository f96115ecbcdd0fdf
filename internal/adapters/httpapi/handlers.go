package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/extract"
	"github.com/mikey/email-triage/internal/mailbox"
	"go.uber.org/zap"
)

// formOverhead is allowed on top of the upload limit for the other form fields
const formOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   serviceName,
		"version":   serviceVersion,
		"backend": map[string]any{
			"classifier":       s.Backend.ClassifierAvailable(),
			"classifier_model": s.Backend.ClassifierName(),
			"generator":        s.Backend.GeneratorAvailable(),
			"generator_model":  s.Backend.GeneratorName(),
		},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	descriptions := make(map[core.Category]string, len(core.Categories))
	for _, c := range core.Categories {
		descriptions[c] = c.Description()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":   core.Categories,
		"descriptions": descriptions,
	})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"styles":  core.Styles,
		"default": core.StyleStandard,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	text, fileInfo, status, err := s.readSubmission(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	result, err := s.Service.Analyze(r.Context(), core.AnalyzeRequest{
		Text:       text,
		Style:      core.ParseStyle(r.FormValue("style")),
		SenderName: strings.TrimSpace(r.FormValue("sender_name")),
	})
	if errors.Is(err, core.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.Logger.Error("Failed to analyze email", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, newAnalysisResponse(result, fileInfo))
}

// readSubmission returns the email text of a form, from the uploaded file
// when one is sent and from the text field otherwise
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) (string, *extract.FileInfo, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)
	if status, err := parseForm(r); err != nil {
		return "", nil, status, err
	}

	if r.MultipartForm != nil && len(r.MultipartForm.File["file"]) > 0 {
		header := r.MultipartForm.File["file"][0]
		if header.Filename != "" {
			file, err := header.Open()
			if err != nil {
				return "", nil, http.StatusBadRequest, fmt.Errorf("failed to open upload: %w", err)
			}
			defer file.Close()

			text, info, err := s.Extractor.Extract(header.Filename, file)
			switch {
			case errors.Is(err, extract.ErrFileTooLarge):
				return "", nil, http.StatusRequestEntityTooLarge, err
			case err != nil:
				return "", nil, http.StatusBadRequest, err
			}
			return text, &info, http.StatusOK, nil
		}
	}

	text := r.FormValue("text")
	if text == "" {
		return "", nil, http.StatusBadRequest, errors.New("no text or file was sent")
	}
	return text, nil, http.StatusOK, nil
}

func parseForm(r *http.Request) (int, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(32 << 20)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return http.StatusOK, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, extract.ErrFileTooLarge
	}
	return http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err)
}

type batchRequest struct {
	Emails     []string `json:"emails"`
	Style      string   `json:"style"`
	SenderName string   `json:"sender_name"`
}

// decodeBatch accepts a bare JSON array of texts or a batchRequest object
func decodeBatch(body []byte) (batchRequest, error) {
	var req batchRequest
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &req.Emails)
		return req, err
	}
	err := json.Unmarshal(trimmed, &req)
	return req, err
}

func (s *Server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	req, err := decodeBatch(buf.Bytes())
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid batch request: %v", err))
		return
	}
	if len(req.Emails) > s.cfg.BatchLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d emails per request", s.cfg.BatchLimit))
		return
	}

	items := s.Service.AnalyzeBatch(r.Context(), req.Emails, core.ParseStyle(req.Style), req.SenderName)

	resp := batchResponse{Results: make([]batchResult, 0, len(items))}
	for _, item := range items {
		res := batchResult{Index: item.Index, EmailPreview: item.Preview}
		if item.Err != nil {
			res.Status = "failed"
			res.Error = item.Err.Error()
			resp.Summary.Failed++
		} else {
			res.Status = "success"
			res.Category = item.Result.Classification.Category
			res.Suggestion = item.Result.Reply.Text
			resp.Summary.Successful++
		}
		resp.Results = append(resp.Results, res)
	}
	resp.Summary.Total = len(req.Emails)
	resp.Summary.ProcessingTimeSeconds = seconds(time.Since(start))

	s.Logger.Info("Batch request served",
		zap.Int("total", resp.Summary.Total),
		zap.Int("successful", resp.Summary.Successful),
		zap.Int("failed", resp.Summary.Failed))

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var text string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
		text = body.Text
	} else {
		submitted, _, status, err := s.readSubmission(w, r)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		text = submitted
	}

	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, core.ErrEmptyText.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Service.GetInsights(r.Context(), text))
}

func (s *Server) handleAutoAnalyze(w http.ResponseWriter, r *http.Request) {
	if status, err := parseForm(r); err != nil {
		writeError(w, status, err.Error())
		return
	}

	creds := mailbox.IMAPCredentials{
		Address:  strings.TrimSpace(r.FormValue("email_address")),
		Password: r.FormValue("password"),
		Server:   strings.TrimSpace(r.FormValue("imap_server")),
	}
	if creds.Address == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email_address and password are required")
		return
	}
	maxEmails, err := intField(r, "max_emails", s.imapCfg.MaxEmails)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	emails, err := s.IMAP.FetchUnread(r.Context(), creds, maxEmails)
	if err != nil {
		s.Logger.Error("Failed to read emails", zap.String("address", creds.Address), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read emails: %v", err))
		return
	}

	style := core.ParseStyle(r.FormValue("style"))
	resp := mailboxResponse{Results: make([]mailboxResult, 0, len(emails))}
	for _, email := range emails {
		result, ok := s.analyzeEmail(r, email, style)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, result)
	}
	resp.Total = len(resp.Results)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGmailAutoAnalyze(w http.ResponseWriter, r *http.Request) {
	if status, err := parseForm(r); err != nil {
		writeError(w, status, err.Error())
		return
	}

	token := strings.TrimSpace(r.FormValue("access_token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "access_token is required")
		return
	}
	maxResults, err := intField(r, "max_results", int(s.gmailCfg.MaxResults))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := s.Gmail.FetchLatest(r.Context(), token, int64(maxResults))
	if err != nil {
		s.Logger.Error("Failed to fetch Gmail messages", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to fetch emails: %v", err))
		return
	}

	style := core.ParseStyle(r.FormValue("style"))
	resp := mailboxResponse{Results: make([]mailboxResult, 0, len(messages))}
	for _, msg := range messages {
		result, ok := s.analyzeEmail(r, msg.Email, style)
		if !ok {
			continue
		}
		replied := msg.AlreadyReplied
		result.AlreadyReplied = &replied
		resp.Results = append(resp.Results, result)
	}
	resp.Total = len(resp.Results)
	writeJSON(w, http.StatusOK, resp)
}

// analyzeEmail triages a mailbox message; empty messages are skipped
func (s *Server) analyzeEmail(r *http.Request, email *core.Email, style core.Style) (mailboxResult, bool) {
	result, err := s.Service.AnalyzeEmail(r.Context(), email, style)
	if err != nil {
		s.Logger.Debug("Skipping message", zap.String("id", email.ID), zap.Error(err))
		return mailboxResult{}, false
	}
	return mailboxResult{
		ID:          email.ID,
		ThreadID:    email.ThreadID,
		Subject:     email.Subject,
		From:        email.From,
		Category:    result.Classification.Category,
		Suggestion:  result.Reply.Text,
		BodyPreview: mailbox.Preview(email.Body),
		Urgency:     result.Insights.Urgency,
	}, true
}

func (s *Server) handleGmailAutoReply(w http.ResponseWriter, r *http.Request) {
	if status, err := parseForm(r); err != nil {
		writeError(w, status, err.Error())
		return
	}

	token := strings.TrimSpace(r.FormValue("access_token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "access_token is required")
		return
	}
	var replies []mailbox.Reply
	if err := json.Unmarshal([]byte(r.FormValue("replies")), &replies); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid replies: %v", err))
		return
	}

	results := make([]replyResult, 0, len(replies))
	for _, reply := range replies {
		id, err := s.Gmail.SendReply(r.Context(), token, reply)
		if err != nil {
			s.Logger.Warn("Failed to send reply", zap.String("to", reply.ToEmail), zap.Error(err))
			results = append(results, replyResult{To: reply.ToEmail, Status: "error", Error: err.Error()})
			continue
		}
		results = append(results, replyResult{To: reply.ToEmail, Status: "sent", ID: id})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func intField(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
