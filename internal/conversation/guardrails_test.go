package conversation

import "testing"

func TestMatchesForbiddenTermWholeWord(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"qual é o seu cpf?", true},
		{"meu RG venceu semana passada", true},
		{"integral e cpfzinho não contam", false},
		{"quero saber sobre economia na conta de luz", false},
		{"pode me passar sua conta bancária?", true},
	}
	for _, tc := range cases {
		_, got := matchesForbiddenTerm(tc.text)
		if got != tc.want {
			t.Errorf("matchesForbiddenTerm(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
