package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/extract"
)

type analysisMetadata struct {
	ProcessingTimeSeconds float64           `json:"processing_time_seconds"`
	TextLength            int               `json:"text_length"`
	ProcessedAt           time.Time         `json:"processed_at"`
	FileInfo              *extract.FileInfo `json:"file_info"`
	ModelUsed             string            `json:"model_used"`
	Confidence            string            `json:"confidence"`
	Style                 core.Style        `json:"style"`
	ReplySource           string            `json:"reply_source"`
}

type analysisResponse struct {
	Category   core.Category    `json:"category"`
	Suggestion string           `json:"suggestion"`
	Metadata   analysisMetadata `json:"metadata"`
}

func newAnalysisResponse(result *core.AnalysisResult, fileInfo *extract.FileInfo) analysisResponse {
	return analysisResponse{
		Category:   result.Classification.Category,
		Suggestion: result.Reply.Text,
		Metadata: analysisMetadata{
			ProcessingTimeSeconds: seconds(result.Duration),
			TextLength:            result.TextLength,
			ProcessedAt:           result.AnalyzedAt,
			FileInfo:              fileInfo,
			ModelUsed:             result.Classification.ModelUsed,
			Confidence:            result.Classification.Confidence,
			Style:                 result.Reply.Style,
			ReplySource:           result.Reply.Source,
		},
	}
}

type batchResult struct {
	Index        int           `json:"index"`
	EmailPreview string        `json:"email_preview"`
	Category     core.Category `json:"category,omitempty"`
	Suggestion   string        `json:"suggestion,omitempty"`
	Error        string        `json:"error,omitempty"`
	Status       string        `json:"status"`
}

type batchSummary struct {
	Total                 int     `json:"total"`
	Successful            int     `json:"successful"`
	Failed                int     `json:"failed"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
	Summary batchSummary  `json:"summary"`
}

type mailboxResult struct {
	ID             string        `json:"id,omitempty"`
	ThreadID       string        `json:"thread_id,omitempty"`
	Subject        string        `json:"subject"`
	From           string        `json:"from"`
	Category       core.Category `json:"category"`
	Suggestion     string        `json:"suggestion"`
	BodyPreview    string        `json:"body_preview"`
	Urgency        string        `json:"urgency"`
	AlreadyReplied *bool         `json:"already_replied,omitempty"`
}

type mailboxResponse struct {
	Results []mailboxResult `json:"results"`
	Total   int             `json:"total"`
}

type replyResult struct {
	To     string `json:"to"`
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// seconds rounds a duration to hundredths of a second
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
