package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zen-systems/erpassist/pkg/adapter"
)

// ErrInvalidDecision reports classifier output that cannot be turned into a Decision.
var ErrInvalidDecision = errors.New("invalid triage decision")

const systemPrompt = `Você faz a triagem das mensagens enviadas ao suporte de um ERP contábil.
Classifique a mensagem do usuário e responda SOMENTE com JSON no formato:
{"decision":"AUTO_RESOLVE|ASK_INFO|OPEN_TICKET","urgency":"LOW|MEDIUM|HIGH","missing_fields":["..."]}

Regras:
- AUTO_RESOLVE: dúvida clara sobre um procedimento do sistema que a documentação pode responder.
- ASK_INFO: mensagem vaga ou incompleta; liste em missing_fields o que falta para ajudar.
- OPEN_TICKET: pedido de acesso remoto, erro recorrente ou pedido explícito de abertura de chamado.`

// Classifier asks a model for the triage decision.
type Classifier struct {
	adapter adapter.Adapter
	model   string
}

// NewClassifier creates a classifier using the given adapter and model.
func NewClassifier(a adapter.Adapter, model string) *Classifier {
	return &Classifier{adapter: a, model: model}
}

// Classify returns the decision for question. Malformed output is an error;
// no decision is synthesized and the call is not retried.
func (c *Classifier) Classify(ctx context.Context, question string) (Decision, error) {
	resp, err := c.adapter.Generate(ctx, c.model, adapter.Request{
		System:      systemPrompt,
		Prompt:      question,
		JSON:        true,
		Temperature: adapter.Temperature(0),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("classifier error: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return Decision{}, fmt.Errorf("%w: classifier returned empty response", ErrInvalidDecision)
	}
	return ParseDecision(resp.Content)
}

type rawDecision struct {
	Decision        string   `json:"decision"`
	Category        string   `json:"category"`
	Decisao         string   `json:"decisao"`
	Urgency         string   `json:"urgency"`
	Urgencia        string   `json:"urgencia"`
	MissingFields   []string `json:"missing_fields"`
	CamposFaltantes []string `json:"campos_faltantes"`
}

// ParseDecision decodes classifier output, tolerating a ```json fence.
func ParseDecision(content string) (Decision, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw rawDecision
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}

	label := firstNonEmpty(raw.Decision, raw.Category, raw.Decisao)
	if label == "" {
		return Decision{}, fmt.Errorf("%w: missing decision", ErrInvalidDecision)
	}
	category, err := ParseCategory(label)
	if err != nil {
		return Decision{}, err
	}

	urgencyLabel := firstNonEmpty(raw.Urgency, raw.Urgencia)
	if urgencyLabel == "" {
		return Decision{}, fmt.Errorf("%w: missing urgency", ErrInvalidDecision)
	}
	urgency, err := ParseUrgency(urgencyLabel)
	if err != nil {
		return Decision{}, err
	}

	missing := raw.MissingFields
	if len(missing) == 0 {
		missing = raw.CamposFaltantes
	}
	var fields []string
	for _, f := range missing {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}

	return Decision{Category: category, Urgency: urgency, MissingFields: fields}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
