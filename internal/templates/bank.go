// Package templates holds the fixed catalogue of reply templates.
package templates

import (
	"strings"

	"github.com/mikey/email-triage/internal/core"
)

// Template is a reply with an optional greeting slot.
// Rendered as "<Greeting> <Name>, <Body>" when a name is supplied and as
// "<Greeting>, <Body>" otherwise. Without a greeting only the body is used.
type Template struct {
	Greeting string
	Body     string
}

// Render substitutes the sender name into the greeting slot
func (t Template) Render(senderName string) string {
	if t.Greeting == "" {
		return t.Body
	}
	name := strings.TrimSpace(senderName)
	if name == "" {
		return t.Greeting + ", " + t.Body
	}
	return t.Greeting + " " + name + ", " + t.Body
}

type key struct {
	category core.Category
	style    core.Style
}

// Bank is an immutable Category x Style template table
type Bank struct {
	entries map[key][]Template
}

// NewBank builds the default template bank
func NewBank() *Bank {
	b := &Bank{entries: make(map[key][]Template, len(defaultTemplates))}
	for k, templates := range defaultTemplates {
		b.entries[k] = append([]Template(nil), templates...)
	}
	return b
}

// Templates returns the templates for a pair. Unknown styles fall back to
// Standard and unknown categories to Unproductive.
func (b *Bank) Templates(category core.Category, style core.Style) []Template {
	if category != core.Productive && category != core.Unproductive {
		category = core.Unproductive
	}
	if templates, ok := b.entries[key{category, style}]; ok {
		return append([]Template(nil), templates...)
	}
	return append([]Template(nil), b.entries[key{category, core.StyleStandard}]...)
}

// Candidates returns the rendered templates for a pair
func (b *Bank) Candidates(category core.Category, style core.Style, senderName string) []string {
	templates := b.Templates(category, style)
	rendered := make([]string, len(templates))
	for i, t := range templates {
		rendered[i] = t.Render(senderName)
	}
	return rendered
}

var defaultTemplates = map[key][]Template{
	{core.Productive, core.StyleStandard}: {
		{"Prezado(a)", "recebemos sua solicitação e ela já está sendo analisada por nossa equipe. Agradecemos o contato."},
		{"Olá", "obrigado pela mensagem. Já estamos verificando o seu pedido e retornaremos em breve."},
		{"Prezado(a)", "sua mensagem foi recebida e encaminhada ao responsável. Em breve enviaremos uma atualização."},
	},
	{core.Productive, core.StyleFormal}: {
		{"Prezado(a) Senhor(a)", "acusamos o recebimento de sua solicitação, que já se encontra em análise por nossa equipe. Retornaremos com a devida brevidade. Atenciosamente."},
		{"Ilustríssimo(a) Senhor(a)", "agradecemos o contato. Informamos que sua demanda foi registrada e será tratada com a máxima prioridade. Cordialmente."},
	},
	{core.Productive, core.StyleInformal}: {
		{"Oi", "recebi sua mensagem! Já estou vendo isso e te dou um retorno logo, combinado?"},
		{"Olá", "valeu pelo contato! Vou dar uma olhada no seu pedido e te aviso assim que tiver novidades."},
		{"E aí", "tudo certo? Já peguei seu pedido aqui e logo te respondo."},
	},
	{core.Productive, core.StyleDetailed}: {
		{"Prezado(a)", "recebemos sua solicitação e agradecemos o contato. Nossa equipe já iniciou a análise do pedido. Os próximos passos são: (1) revisão dos detalhes enviados, (2) validação com a área responsável e (3) envio de um retorno com a solução ou um prazo definido. Caso tenha documentos adicionais, fique à vontade para encaminhá-los respondendo a este email."},
		{"Olá", "obrigado por nos escrever. Sua mensagem foi registrada e encaminhada ao time responsável, que fará uma avaliação completa. Assim que a análise for concluída, enviaremos um resumo com as ações tomadas e eventuais pendências. Se houver alguma urgência adicional, por favor nos informe."},
	},
	{core.Productive, core.StyleObjective}: {
		{"Olá", "solicitação recebida. Retorno em breve."},
		{"Olá", "recebido. Já estamos analisando e responderemos em breve."},
		{"Prezado(a)", "pedido registrado. Daremos retorno em breve."},
	},
	{core.Unproductive, core.StyleStandard}: {
		{"Olá", "obrigado pelo seu contato. Sua mensagem foi recebida."},
		{"Olá", "agradecemos a mensagem! Tenha um ótimo dia."},
		{"", "Obrigado pela mensagem. Ficamos felizes com o contato."},
	},
	{core.Unproductive, core.StyleFormal}: {
		{"Prezado(a)", "agradecemos sinceramente sua mensagem. Atenciosamente."},
		{"Prezado(a) Senhor(a)", "acusamos o recebimento de sua mensagem e agradecemos a gentileza do contato. Cordialmente."},
	},
	{core.Unproductive, core.StyleInformal}: {
		{"Oi", "muito obrigado pela mensagem! Fiquei feliz em receber. Um abraço!"},
		{"Olá", "valeu demais pelo carinho! Grande abraço!"},
		{"E aí", "que bom receber sua mensagem! Abraço!"},
	},
	{core.Unproductive, core.StyleDetailed}: {
		{"Olá", "muito obrigado pela sua mensagem. Ficamos felizes com o contato e com a gentileza. No momento não há nenhuma ação necessária da nossa parte, mas seguimos à disposição caso precise de algo no futuro."},
		{"Prezado(a)", "agradecemos a mensagem recebida. Registramos o contato e, como não há solicitação pendente, nenhuma providência adicional será necessária. Sempre que precisar, é só responder a este email."},
	},
	{core.Unproductive, core.StyleObjective}: {
		{"Olá", "mensagem recebida. Obrigado!"},
		{"", "Recebido, obrigado."},
	},
}
