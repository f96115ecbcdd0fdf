package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	emailPattern      = regexp.MustCompile(`[\p{L}\p{N}._%+\-]+@[\p{L}\p{N}\-]+(\.[\p{L}\p{N}\-]+)+`)
	urlPattern        = regexp.MustCompile(`(?i)(https?://|www\.)\S*[^\s.,;:!?)]`)
	disallowedPattern = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?'"()\-]`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// Normalize removes email addresses, links and unusual characters, then
// collapses whitespace. It never fails.
func (tp *TextProcessor) Normalize(text string) string {
	text = tp.SanitizeUTF8(text)
	text = emailPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")
	text = disallowedPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 drops invalid UTF-8 bytes from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}

// Fold lower-cases text, strips diacritics and turns every non alphanumeric
// rune into a single space. The result is padded with one space on each side
// so whole words and phrases can be matched with strings.Contains.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	var b strings.Builder
	b.Grow(len(stripped) + 2)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// WordCount counts whitespace separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// PhraseSet matches whole words or phrases against folded text
type PhraseSet struct {
	phrases []string
	folded  []string
}

// NewPhraseSet creates a phrase set. Phrases keep their original spelling for reporting.
func NewPhraseSet(phrases ...string) PhraseSet {
	s := PhraseSet{
		phrases: make([]string, 0, len(phrases)),
		folded:  make([]string, 0, len(phrases)),
	}
	for _, p := range phrases {
		f := Fold(p)
		if strings.TrimSpace(f) == "" {
			continue
		}
		s.phrases = append(s.phrases, p)
		s.folded = append(s.folded, f)
	}
	return s
}

// Find returns the phrases present in folded, in declaration order
func (s PhraseSet) Find(folded string) []string {
	var hits []string
	for i, f := range s.folded {
		if strings.Contains(folded, f) {
			hits = append(hits, s.phrases[i])
		}
	}
	return hits
}

// Any reports whether at least one phrase is present in folded
func (s PhraseSet) Any(folded string) bool {
	for _, f := range s.folded {
		if strings.Contains(folded, f) {
			return true
		}
	}
	return false
}

// ExtractJSON returns the outermost JSON object embedded in an LLM answer
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
