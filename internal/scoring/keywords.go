package scoring

// group is a named keyword list on one side of the scorer
type group struct {
	name       string
	highWeight bool
	casual     bool
	keywords   []string
}

// Keyword groups that signal an email needs action
var productiveGroups = []group{
	{
		name:       "work",
		highWeight: true,
		keywords: []string{
			"trabalho", "projeto", "reunião", "relatório", "prazo", "cliente",
			"empresa", "negócio", "equipe", "entrega", "cronograma",
		},
	},
	{
		name:       "requests",
		highWeight: true,
		keywords: []string{
			"solicitação", "solicitar", "solicito", "pedido", "preciso", "precisamos",
			"por favor", "poderia", "poderiam", "gostaria", "aguardo", "retorno",
		},
	},
	{
		name:       "urgency",
		highWeight: true,
		keywords: []string{
			"urgente", "urgência", "imediato", "imediatamente", "asap", "crítico",
			"prioridade", "o quanto antes", "hoje",
		},
	},
	{
		name: "commercial",
		keywords: []string{
			"proposta", "orçamento", "contrato", "fatura", "pagamento", "cotação",
			"venda", "compra", "nota fiscal",
		},
	},
	{
		name: "collaboration",
		keywords: []string{
			"parceria", "colaboração", "agendar", "alinhamento", "feedback",
			"revisão", "aprovação", "próximos passos",
		},
	},
	{
		name: "problems",
		keywords: []string{
			"problema", "erro", "falha", "suporte", "bug", "fora do ar",
			"incidente", "reclamação", "defeito",
		},
	},
	{
		name: "documents",
		keywords: []string{
			"documento", "anexo", "arquivo", "planilha", "apresentação", "formulário",
		},
	},
}

// Keyword groups that signal an email needs no professional action
var unproductiveGroups = []group{
	{
		name:   "personal",
		casual: true,
		keywords: []string{
			"aniversário", "parabéns", "feliz", "família", "férias", "natal",
			"ano novo", "felicidades",
		},
	},
	{
		name:   "social",
		casual: true,
		keywords: []string{
			"festa", "churrasco", "happy hour", "confraternização", "encontro",
			"fim de semana", "convite",
		},
	},
	{
		name:       "spam",
		highWeight: true,
		keywords: []string{
			"promoção", "desconto", "grátis", "oferta", "ganhe", "clique aqui",
			"sorteio", "imperdível", "newsletter", "descadastrar",
		},
	},
	{
		name:   "casual",
		casual: true,
		keywords: []string{
			"oi", "olá", "tudo bem", "abraço", "abraços", "beijo", "saudade",
			"kkk", "haha",
		},
	},
	{
		name:   "thanks",
		casual: true,
		keywords: []string{
			"obrigado", "obrigada", "agradeço", "valeu", "agradecimento", "grato", "grata",
		},
	},
}

// simpleKeywords is the single productive list used by the simple strategy
var simpleKeywords = []string{
	"urgente", "importante", "negócio", "proposta", "reunião",
	"projeto", "contrato", "orçamento", "pedido", "solicitação",
}
