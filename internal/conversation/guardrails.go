package conversation

import "strings"

// forbiddenTerms are whole-word matched against an inbound message before
// any model call; a hit skips the model entirely and returns a canned
// refusal. The set covers the categories of personal/financial data the
// conversation must never ask for or echo back: CPF, RG, and bank
// account details.
var forbiddenTerms = []string{
	"cpf", "rg", "identidade", "conta bancária", "conta bancaria",
	"agência", "agencia", "número da conta", "numero da conta",
	"senha do banco", "cartão de crédito", "cartao de credito",
}

const guardRailRefusal = "Por aqui eu não peço nem guardo documentos ou dados bancários. " +
	"Posso te ajudar com informações sobre economia na conta de luz, disponibilidade de agenda ou qualquer dúvida sobre os planos. Como posso ajudar?"

// matchesForbiddenTerm reports whether text contains any forbidden term
// as a whole word (not glued to surrounding letters/digits), so e.g.
// "rga" or "integral" never false-positives on "rg"/"cpf".
func matchesForbiddenTerm(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, term := range forbiddenTerms {
		if containsWholeWord(lower, term) {
			return term, true
		}
	}
	return "", false
}

func containsWholeWord(haystack, term string) bool {
	hr := []rune(haystack)
	tr := []rune(term)
	for start := 0; start+len(tr) <= len(hr); start++ {
		if string(hr[start:start+len(tr)]) != term {
			continue
		}
		end := start + len(tr)
		beforeOK := start == 0 || isWordBoundary(hr[start-1])
		afterOK := end == len(hr) || isWordBoundary(hr[end])
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}
