package followup

import (
	"fmt"

	leadsdomain "sdrsolar/internal/leads/domain"
)

// renderTemplate fills a follow-up's template with the lead's display name
// ("tudo bem" when it is empty); the lead's stage and slot values are not
// used. Templates are plain Portuguese strings;
// there is no template-file indirection since the set is small and fixed
// by Kind.
func renderTemplate(f FollowUp, lead leadsdomain.Lead) string {
	name := lead.DisplayName
	if name == "" {
		name = "tudo bem"
	}

	switch f.Kind {
	case KindReengage30m:
		return fmt.Sprintf("Oi %s, ainda por aí? Posso te ajudar a continuar de onde paramos.", name)
	case KindReengage24h:
		return fmt.Sprintf("Oi %s, passando para saber se ainda tem interesse em conhecer mais sobre energia solar.", name)
	case KindNurture:
		return fmt.Sprintf("Oi %s, separei uma novidade sobre economia na conta de luz que pode te interessar.", name)
	case KindReminder24h, KindReminder2h, KindReminder30m:
		return fmt.Sprintf("Oi %s, lembrete da nossa conversa sobre energia solar.", name)
	default:
		return fmt.Sprintf("Oi %s, tudo bem?", name)
	}
}
