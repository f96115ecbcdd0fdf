package core

import (
	"context"
)

// Ranking is the output of a zero-shot classification call
type Ranking struct {
	// Labels are ordered from most to least likely
	Labels []string
	// Scores is parallel to Labels. It is empty when the backend exposes no scores.
	Scores    []float64
	ModelUsed string
}

// Top returns the best label and its score, when present
func (r *Ranking) Top() (label string, score float64, hasScore bool) {
	if r == nil || len(r.Labels) == 0 {
		return "", 0, false
	}
	if len(r.Scores) > 0 {
		return r.Labels[0], r.Scores[0], true
	}
	return r.Labels[0], 0, false
}

// GenerationParams bounds a text generation call
type GenerationParams struct {
	MaxLength   int
	NumBeams    int
	Temperature *float32
}

// ZeroShotClassifier ranks candidate labels for a text
type ZeroShotClassifier interface {
	// Rank returns the candidate labels ordered by likelihood
	Rank(ctx context.Context, text string, labels []string) (*Ranking, error)
	// Name identifies the model behind the classifier
	Name() string
}

// TextGenerator produces text from an instruction prompt
type TextGenerator interface {
	// Generate runs the prompt and returns the generated text
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	// Name identifies the model behind the generator
	Name() string
}

// KeywordScore is the evidence gathered by the rule-based scorer
type KeywordScore struct {
	Category          Category
	ProductiveScore   int
	UnproductiveScore int
	ProductiveHits    []string
	UnproductiveHits  []string
	// CasualHits is the subset of UnproductiveHits from personal, social, casual
	// and thanks groups
	CasualHits []string
	Words      int
}

// Scorer is the deterministic, backend-free classifier
type Scorer interface {
	Score(text string) KeywordScore
}

// TemplateBank selects reply templates
type TemplateBank interface {
	// Candidates returns the rendered candidates for the pair, with the sender
	// name substituted. Unknown styles fall back to StyleStandard and unknown
	// categories to Unproductive.
	Candidates(category Category, style Style, senderName string) []string
}

// RandomSource picks an index in [0, n)
type RandomSource interface {
	IntN(n int) int
}

// CacheRepository memoizes model verdicts
type CacheRepository interface {
	// Get retrieves a cached entry
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error
}
