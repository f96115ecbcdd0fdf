package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-triage/internal/core"
)

func TestEveryPairHasCandidates(t *testing.T) {
	bank := NewBank()
	for _, category := range core.Categories {
		for _, style := range core.Styles {
			templates := bank.Templates(category, style)
			require.GreaterOrEqual(t, len(templates), 2, "%s/%s", category, style)
			require.LessOrEqual(t, len(templates), 3, "%s/%s", category, style)
			for _, c := range bank.Candidates(category, style, "") {
				assert.NotEmpty(t, strings.TrimSpace(c))
			}
		}
	}
}

func TestRender(t *testing.T) {
	tmpl := Template{Greeting: "Olá", Body: "mensagem recebida."}
	assert.Equal(t, "Olá Ana, mensagem recebida.", tmpl.Render("Ana"))
	assert.Equal(t, "Olá, mensagem recebida.", tmpl.Render(""))
	assert.Equal(t, "Olá, mensagem recebida.", tmpl.Render("   "))

	bare := Template{Body: "Recebido."}
	assert.Equal(t, "Recebido.", bare.Render("Ana"))
}

func TestUnknownStyleFallsBackToStandard(t *testing.T) {
	bank := NewBank()
	assert.Equal(t,
		bank.Templates(core.Productive, core.StyleStandard),
		bank.Templates(core.Productive, core.Style("Poetic")))
}

func TestUnknownCategoryIsUnproductive(t *testing.T) {
	bank := NewBank()
	assert.Equal(t,
		bank.Templates(core.Unproductive, core.StyleFormal),
		bank.Templates(core.Category("Spam"), core.StyleFormal))
}

func TestObjectiveTemplatesAreTerse(t *testing.T) {
	bank := NewBank()
	for _, category := range core.Categories {
		for _, c := range bank.Candidates(category, core.StyleObjective, "Ana") {
			assert.Less(t, len([]rune(c)), 100, c)
		}
	}
}

func TestTemplatesAreCopied(t *testing.T) {
	bank := NewBank()
	templates := bank.Templates(core.Productive, core.StyleStandard)
	templates[0].Body = "changed"

	assert.NotEqual(t, "changed", bank.Templates(core.Productive, core.StyleStandard)[0].Body)
}
