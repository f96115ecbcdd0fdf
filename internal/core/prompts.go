package core

import (
	"fmt"
	"strings"
)

var categoryInstructions = map[Category]string{
	Productive:   "Gere uma resposta profissional",
	Unproductive: "Gere uma resposta educada",
}

var styleEmphasis = map[Style]string{
	StyleStandard:  "curta e clara",
	StyleFormal:    "formal e cortês, com linguagem corporativa e fechamento respeitoso",
	StyleInformal:  "calorosa e descontraída, em tom amigável",
	StyleDetailed:  "detalhada, explicando o que será feito e listando os próximos passos",
	StyleObjective: "muito breve e direta, em no máximo uma frase",
}

// BuildPrompt builds the generation instruction for an email
func BuildPrompt(text string, category Category, style Style, senderName string) string {
	instruction, ok := categoryInstructions[category]
	if !ok {
		instruction = categoryInstructions[Unproductive]
	}
	emphasis, ok := styleEmphasis[style]
	if !ok {
		emphasis = styleEmphasis[StyleStandard]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s, para o email abaixo.", instruction, emphasis)
	if name := strings.TrimSpace(senderName); name != "" {
		fmt.Fprintf(&b, " Inclua naturalmente o nome do remetente, %s, na saudação.", name)
	}
	fmt.Fprintf(&b, "\n\nEmail: %q", text)
	return b.String()
}
