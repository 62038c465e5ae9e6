package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/erpassist/pkg/adapter"
	"github.com/zen-systems/erpassist/pkg/docstore"
)

const answerSystemPrompt = `Você é analista de suporte de um ERP contábil.
Responda apenas com base no contexto fornecido.
Se o contexto não trouxer base suficiente, responda somente: '%s'.`

// LLMGenerator answers a question from retrieved passages.
type LLMGenerator struct {
	adapter  adapter.Adapter
	model    string
	sentinel string
}

// NewLLMGenerator creates a generator that instructs the model to reply with
// sentinel when the passages do not support an answer.
func NewLLMGenerator(a adapter.Adapter, model, sentinel string) *LLMGenerator {
	return &LLMGenerator{adapter: a, model: model, sentinel: sentinel}
}

// Answer returns the model's answer.
func (g *LLMGenerator) Answer(ctx context.Context, question string, passages []docstore.Passage) (string, error) {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	prompt := fmt.Sprintf("Pergunta: %s\n\nContexto:\n%s", question, strings.Join(texts, "\n\n"))

	resp, err := g.adapter.Generate(ctx, g.model, adapter.Request{
		System:      fmt.Sprintf(answerSystemPrompt, g.sentinel),
		Prompt:      prompt,
		Temperature: adapter.Temperature(0),
	})
	if err != nil {
		return "", fmt.Errorf("generation error: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("generation returned empty response")
	}
	return strings.TrimSpace(resp.Content), nil
}

// IsSentinel reports whether answer is the "don't know" reply. Trailing
// periods, exclamation and question marks are ignored; the comparison is
// otherwise exact and case-sensitive.
func IsSentinel(answer, sentinel string) bool {
	trim := func(s string) string {
		return strings.TrimRight(strings.TrimSpace(s), ".!?")
	}
	return trim(answer) == trim(sentinel)
}
