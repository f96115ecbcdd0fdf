// Package ranking turns a chat-style LLM into a zero-shot classifier.
package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
)

// MaxTokens bounds the answer of a ranking call
const MaxTokens = 128

// ErrNoLabel is returned when the model answer names no label
var ErrNoLabel = errors.New("ranking response has no label")

// SystemPrompt is sent as the system message by chat based providers
const SystemPrompt = "You are an email triage system. Respond only with JSON."

const promptFormat = `Classify the following email into exactly one of these categories: %s.
%s
Respond with a JSON object containing:
- label: string (the most likely category, spelled exactly as listed)
- scores: object mapping every category to a number between 0 and 1 (the scores add up to 1)

Email:
%s

Respond only with the JSON object and nothing else.`

// Response is the JSON answer expected from the model
type Response struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores"`
}

// Prompt builds the zero-shot instruction for text
func Prompt(text string, labels []string) string {
	var descriptions strings.Builder
	for _, label := range labels {
		if category, ok := core.ParseCategory(label); ok {
			fmt.Fprintf(&descriptions, "- %s: %s\n", label, category.Description())
		}
	}
	return fmt.Sprintf(promptFormat, strings.Join(labels, ", "), descriptions.String(), text)
}

// Parse reads the model answer into a ranking over labels.
// Scores are kept only for the candidate labels; without scores the ranking
// holds the answered label first and carries no scores.
func Parse(answer string, labels []string, model string) (*core.Ranking, error) {
	var resp Response
	if err := json.Unmarshal([]byte(answer), &resp); err != nil {
		raw, ok := utils.ExtractJSON(answer)
		if !ok {
			return nil, fmt.Errorf("failed to extract JSON from LLM response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
		}
	}

	ranking := &core.Ranking{ModelUsed: model}

	if scored := scoresFor(resp.Scores, labels); len(scored) > 0 {
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
		for _, s := range scored {
			ranking.Labels = append(ranking.Labels, s.label)
			ranking.Scores = append(ranking.Scores, s.score)
		}
		return ranking, nil
	}

	label := strings.TrimSpace(resp.Label)
	if label == "" {
		return nil, ErrNoLabel
	}
	ranking.Labels = append(ranking.Labels, label)
	for _, l := range labels {
		if !strings.EqualFold(l, label) {
			ranking.Labels = append(ranking.Labels, l)
		}
	}
	return ranking, nil
}

type labelScore struct {
	label string
	score float64
}

func scoresFor(scores map[string]float64, labels []string) []labelScore {
	if len(scores) == 0 {
		return nil
	}
	var out []labelScore
	for _, label := range labels {
		for k, v := range scores {
			if strings.EqualFold(strings.TrimSpace(k), label) {
				out = append(out, labelScore{label: label, score: v})
				break
			}
		}
	}
	return out
}
