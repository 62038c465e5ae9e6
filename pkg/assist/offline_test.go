package assist

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/zen-systems/erpassist/pkg/adapter"
	"github.com/zen-systems/erpassist/pkg/docstore"
	"github.com/zen-systems/erpassist/pkg/embedding"
	"github.com/zen-systems/erpassist/pkg/images"
	"github.com/zen-systems/erpassist/pkg/triage"
)

func TestOfflineTurnWithMockAdapter(t *testing.T) {
	ctx := context.Background()
	question := "Como importar nota fiscal de entrada?"

	embedder := embedding.NewHashEmbedder(64)
	store := docstore.NewMemoryStore()
	records := []docstore.Record{
		{ID: "fiscal-2", Source: "manuais/Manual Fiscal.pdf", Page: 2, Text: question},
		{ID: "folha-0", Source: "manuais/folha.pdf", Page: 0, Text: "Cálculo de férias e rescisão na folha de pagamento."},
	}
	if err := docstore.Index(ctx, embedder, store, records); err != nil {
		t.Fatalf("index: %v", err)
	}

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, filepath.Join("imgs", "Manual Fiscal_page3_1.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	mock := adapter.NewMockAdapter()
	engine := NewEngine(
		triage.NewClassifier(mock, "mock-1"),
		docstore.NewRetriever(embedder, store, docstore.SearchOptions{TopK: 4, MinScore: 0.4}),
		NewLLMGenerator(mock, "mock-1", ""),
		images.NewLocator(fsys, "imgs", "/static/images"),
		Options{},
	)

	state, err := engine.Run(ctx, question)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Action != ActionAutoResolve || !state.Grounded {
		t.Fatalf("expected grounded AUTO_RESOLVE, got %s grounded=%v", state.Action, state.Grounded)
	}
	if !strings.HasPrefix(state.Answer, "mock response:") {
		t.Fatalf("unexpected answer %q", state.Answer)
	}
	if len(state.Citations) == 0 || state.Citations[0].Document != "Manual Fiscal.pdf" || state.Citations[0].Page != 3 {
		t.Fatalf("unexpected citations %+v", state.Citations)
	}
	if len(state.Images) != 1 || state.Images[0] != "/static/images/Manual%20Fiscal_page3_1.png" {
		t.Fatalf("unexpected images %v", state.Images)
	}
	if got := len(mock.Requests()); got != 2 {
		t.Fatalf("expected triage and answer calls, got %d", got)
	}
}
