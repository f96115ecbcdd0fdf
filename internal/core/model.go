package core

import (
	"strings"
	"time"
)

// Category is the triage verdict for an email
type Category string

const (
	// Productive emails require action, a response or a follow-up
	Productive Category = "Productive"
	// Unproductive emails need no immediate professional action
	Unproductive Category = "Unproductive"
)

// Categories lists every category in canonical order
var Categories = []Category{Productive, Unproductive}

// ParseCategory maps a label to a Category, case-insensitively.
// Portuguese labels are accepted as well. Unknown labels map to Unproductive
// and ok is false.
func ParseCategory(label string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "productive", "produtivo":
		return Productive, true
	case "unproductive", "improdutivo":
		return Unproductive, true
	default:
		return Unproductive, false
	}
}

// Description returns a short human readable description of the category
func (c Category) Description() string {
	if c == Productive {
		return "Emails that require a specific action or response"
	}
	return "Emails that do not need immediate action"
}

// Style selects the tone of a suggested reply
type Style string

const (
	StyleStandard  Style = "Standard"
	StyleFormal    Style = "Formal"
	StyleInformal  Style = "Informal"
	StyleDetailed  Style = "Detailed"
	StyleObjective Style = "Objective"
)

// Styles lists every reply style
var Styles = []Style{StyleStandard, StyleFormal, StyleInformal, StyleDetailed, StyleObjective}

// ParseStyle maps a style id to a Style. Unknown or empty ids fall back to
// StyleStandard.
func ParseStyle(id string) Style {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "formal":
		return StyleFormal
	case "informal":
		return StyleInformal
	case "detailed", "detalhada", "detalhado":
		return StyleDetailed
	case "objective", "objetiva", "objetivo":
		return StyleObjective
	default:
		return StyleStandard
	}
}

// Confidence labels. They are qualitative, not calibrated probabilities.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Sources of a verdict or reply
const (
	SourceModel    = "model"
	SourceKeywords = "keywords"
	SourceCache    = "cache"
	SourceTemplate = "template"
)

// ClassificationResult is produced fresh for every classification
type ClassificationResult struct {
	Category   Category
	Confidence string
	Source     string
	ModelUsed  string
	Matched    []string
}

// ReplySuggestion is a generated or template-selected reply
type ReplySuggestion struct {
	Text      string
	Style     Style
	Source    string
	ModelUsed string
}

// Urgency levels reported by the insight extractor
const (
	UrgencyHigh   = "high"
	UrgencyNormal = "normal"
	UrgencyLow    = "low"
)

// Tones reported by the insight extractor
const (
	ToneCordial   = "cordial"
	ToneUrgent    = "urgent"
	ToneConcerned = "concerned"
	TonePositive  = "positive"
	ToneNeutral   = "neutral"
)

// InsightRecord holds auxiliary signals derived from an email
type InsightRecord struct {
	Category        Category `json:"category"`
	Confidence      string   `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
	Tone            string   `json:"tone"`
	Urgency         string   `json:"urgency"`
}

// AnalysisResult combines classification, reply and insights for one email
type AnalysisResult struct {
	Classification ClassificationResult
	Reply          ReplySuggestion
	Insights       InsightRecord
	TextLength     int
	AnalyzedAt     time.Time
	Duration       time.Duration
}

// Email represents an email message fetched from a mailbox or relayed by the filter
type Email struct {
	ID       string
	ThreadID string
	From     string
	FromName string
	To       []string
	Subject  string
	Body     string
	Headers  map[string][]string
}

// Text joins subject and body the way the pipeline expects them
func (e *Email) Text() string {
	if e.Subject == "" {
		return e.Body
	}
	return e.Subject + "\n\n" + e.Body
}

// CacheEntry is a memoized model verdict
type CacheEntry struct {
	Key        string
	Category   Category
	Confidence string
	ModelUsed  string
	StoredAt   time.Time
	ExpiresAt  time.Time
}
