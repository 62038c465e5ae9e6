package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/zen-systems/erpassist/pkg/adapter"
)

type failingAdapter struct{}

func (failingAdapter) Generate(context.Context, string, adapter.Request) (*adapter.Response, error) {
	return nil, errors.New("upstream down")
}

func (failingAdapter) Name() string { return "failing" }

func (failingAdapter) Models() []string { return nil }

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Decision
	}{
		{
			name:    "english",
			content: `{"decision":"AUTO_RESOLVE","urgency":"LOW","missing_fields":[]}`,
			want:    Decision{Category: AutoResolve, Urgency: Low},
		},
		{
			name:    "fenced portuguese",
			content: "```json\n{\"decisao\":\"pedir_info\",\"urgencia\":\"MEDIA\",\"campos_faltantes\":[\"módulo\",\" \",\"mensagem de erro\"]}\n```",
			want:    Decision{Category: AskInfo, Urgency: Medium, MissingFields: []string{"módulo", "mensagem de erro"}},
		},
		{
			name:    "mixed case label",
			content: `{"category":"Open_Ticket","urgency":"alta"}`,
			want:    Decision{Category: OpenTicket, Urgency: High},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDecision(tc.content)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got.Category != tc.want.Category || got.Urgency != tc.want.Urgency {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
			if len(got.MissingFields) != len(tc.want.MissingFields) {
				t.Fatalf("missing fields: got %v want %v", got.MissingFields, tc.want.MissingFields)
			}
			for i := range got.MissingFields {
				if got.MissingFields[i] != tc.want.MissingFields[i] {
					t.Fatalf("missing fields: got %v want %v", got.MissingFields, tc.want.MissingFields)
				}
			}
		})
	}
}

func TestParseDecisionRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":         "AUTO_RESOLVE",
		"missing decision": `{"urgency":"LOW"}`,
		"unknown decision": `{"decision":"ESCALATE","urgency":"LOW"}`,
		"missing urgency":  `{"decision":"ASK_INFO"}`,
		"unknown urgency":  `{"decision":"ASK_INFO","urgency":"CRITICAL"}`,
		"partial label":    `{"decision":"AUTO","urgency":"LOW"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDecision(content)
			if !errors.Is(err, ErrInvalidDecision) {
				t.Fatalf("expected ErrInvalidDecision, got %v", err)
			}
		})
	}
}

func TestClassifierSendsQuestionAsJSONRequest(t *testing.T) {
	mock := adapter.NewMockAdapterWithResponses(map[string]string{
		"Como emito uma NF-e?": `{"decision":"AUTO_RESOLVE","urgency":"LOW","missing_fields":[]}`,
	}, "")
	c := NewClassifier(mock, "mock-1")

	decision, err := c.Classify(context.Background(), "Como emito uma NF-e?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if decision.Category != AutoResolve {
		t.Fatalf("expected AUTO_RESOLVE, got %s", decision.Category)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	if !reqs[0].JSON || reqs[0].System == "" || reqs[0].Temperature == nil || *reqs[0].Temperature != 0 {
		t.Fatalf("unexpected request: %+v", reqs[0])
	}
}

func TestClassifierWithDefaultMock(t *testing.T) {
	decision, err := NewClassifier(adapter.NewMockAdapter(), "mock-1").Classify(context.Background(), "Como importar nota fiscal?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if decision.Category != AutoResolve || decision.Urgency != Low {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestClassifierPropagatesAdapterError(t *testing.T) {
	_, err := NewClassifier(failingAdapter{}, "m").Classify(context.Background(), "oi")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecisionJSON(t *testing.T) {
	data, err := Decision{Category: OpenTicket, Urgency: High}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"category":"OPEN_TICKET","urgency":"HIGH","missing_fields":[]}`
	if string(data) != want {
		t.Fatalf("got %s want %s", data, want)
	}
}
