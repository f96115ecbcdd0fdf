package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/scoring"
	"github.com/mikey/email-triage/internal/utils"
)

func newService(backend *core.InferenceBackend) *core.TriageService {
	scorer := scoring.NewKeywordScorer(scoring.StrategyWeighted, scoring.DefaultWeights(), nil)
	text := utils.NewTextProcessor(nil)
	classifier := core.NewClassifier(backend, scorer, text, zap.NewNop())
	generator := newGenerator(backend, nil)
	insights := core.NewInsightExtractor(classifier, scorer, text, zap.NewNop())
	return core.NewTriageService(classifier, generator, insights, zap.NewNop(), 4)
}

func TestAnalyze(t *testing.T) {
	svc := newService(core.NoBackend())

	result, err := svc.Analyze(context.Background(), core.AnalyzeRequest{
		Text:       "Preciso do relatório do projeto hoje, é urgente",
		Style:      core.StyleObjective,
		SenderName: "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, core.Productive, result.Classification.Category)
	assert.Equal(t, core.StyleObjective, result.Reply.Style)
	assert.Contains(t, result.Reply.Text, "Ana")
	assert.Equal(t, core.UrgencyHigh, result.Insights.Urgency)
	assert.Equal(t, 47, result.TextLength)
	assert.False(t, result.AnalyzedAt.IsZero())
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	svc := newService(core.NoBackend())

	_, err := svc.Analyze(context.Background(), core.AnalyzeRequest{Text: " \n "})
	assert.ErrorIs(t, err, core.ErrEmptyText)
}

func TestAnalyzeEmailUsesSenderName(t *testing.T) {
	svc := newService(core.NoBackend())

	result, err := svc.AnalyzeEmail(context.Background(), &core.Email{
		FromName: "Carlos",
		Subject:  "Proposta comercial",
		Body:     "Segue a proposta para aprovação do contrato.",
	}, core.StyleObjective)
	require.NoError(t, err)
	assert.Equal(t, core.Productive, result.Classification.Category)
	assert.Contains(t, result.Reply.Text, "Carlos")
}

func TestAnalyzeBatch(t *testing.T) {
	svc := newService(core.NoBackend())

	items := svc.AnalyzeBatch(context.Background(), []string{
		"Reunião urgente amanhã",
		"",
		"Feliz aniversário!",
		"   ",
		"Segue o orçamento solicitado para o projeto, aguardo retorno.",
	}, core.StyleStandard, "")

	require.Len(t, items, 3)
	assert.Equal(t, []int{0, 2, 4}, []int{items[0].Index, items[1].Index, items[2].Index})
	assert.Equal(t, core.Productive, items[0].Result.Classification.Category)
	assert.Equal(t, core.Unproductive, items[1].Result.Classification.Category)
	assert.Equal(t, core.Productive, items[2].Result.Classification.Category)
	for _, item := range items {
		assert.NoError(t, item.Err)
	}
	assert.Equal(t, "Segue o orçamento solicitado para o projeto, aguar...", items[2].Preview)
}

func TestAnalyzeBatchKeepsInputOrderBeyondConcurrencyLimit(t *testing.T) {
	svc := newService(core.NoBackend())

	texts := make([]string, 25)
	for i := range texts {
		if i%2 == 0 {
			texts[i] = "Reunião urgente sobre o contrato"
		} else {
			texts[i] = "Feliz aniversário!"
		}
	}
	texts[7] = " "

	items := svc.AnalyzeBatch(context.Background(), texts, core.StyleObjective, "")

	require.Len(t, items, 24)
	prev := -1
	for _, item := range items {
		assert.Greater(t, item.Index, prev)
		prev = item.Index
		assert.NotEqual(t, 7, item.Index)

		expected := core.Unproductive
		if item.Index%2 == 0 {
			expected = core.Productive
		}
		require.NotNil(t, item.Result)
		assert.Equal(t, expected, item.Result.Classification.Category, "item %d", item.Index)
	}
}

func TestInsights(t *testing.T) {
	svc := newService(core.NoBackend())
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		category core.Category
		tone     string
		urgency  string
		matched  []string
	}{
		{
			name:     "urgent request",
			text:     "Preciso disso urgente, por favor",
			category: core.Productive,
			tone:     core.ToneUrgent,
			urgency:  core.UrgencyHigh,
			matched:  []string{"preciso", "por favor", "urgente"},
		},
		{
			name:     "birthday",
			text:     "Feliz aniversário! Muitas felicidades",
			category: core.Unproductive,
			tone:     core.TonePositive,
			urgency:  core.UrgencyNormal,
			matched:  []string{"aniversário", "feliz", "felicidades"},
		},
		{
			name:     "cordial without hurry",
			text:     "Prezada Ana, sem pressa, quando puder me envie o relatório do projeto.",
			category: core.Productive,
			tone:     core.ToneCordial,
			urgency:  core.UrgencyLow,
			matched:  []string{"projeto", "relatório"},
		},
		{
			name:     "nothing to report",
			text:     "",
			category: core.Unproductive,
			tone:     core.ToneNeutral,
			urgency:  core.UrgencyNormal,
			matched:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := svc.GetInsights(ctx, tt.text)
			assert.Equal(t, tt.category, record.Category)
			assert.Equal(t, tt.tone, record.Tone)
			assert.Equal(t, tt.urgency, record.Urgency)
			assert.Equal(t, tt.matched, record.MatchedKeywords)
		})
	}
}
