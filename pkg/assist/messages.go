package assist

import (
	"fmt"
	"strings"

	"github.com/zen-systems/erpassist/pkg/triage"
)

// TicketExcerptLength is how many characters of the question go into a ticket.
const TicketExcerptLength = 140

const genericDetail = "mais detalhes sobre sua dúvida"

// AskInfoMessage asks the user for the missing fields.
func AskInfoMessage(missing []string) string {
	detail := strings.Join(missing, ", ")
	if detail == "" {
		detail = genericDetail
	}
	return fmt.Sprintf("Para que eu possa ajudar melhor, por favor, informe %s.", detail)
}

// TicketMessage acknowledges a ticket with its urgency and the start of the question.
func TicketMessage(urgency triage.Urgency, question string) string {
	return fmt.Sprintf(
		"Entendido. Estou abrindo um chamado para você com urgência '%s'. Em breve um analista entrará em contato. Descrição: %s",
		urgencyLabel(urgency), truncate(question, TicketExcerptLength),
	)
}

func urgencyLabel(u triage.Urgency) string {
	switch u {
	case triage.Low:
		return "BAIXA"
	case triage.Medium:
		return "MEDIA"
	case triage.High:
		return "ALTA"
	}
	return u.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
