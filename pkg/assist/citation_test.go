package assist

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/zen-systems/erpassist/pkg/docstore"
)

func TestExcerptContainsFirstKeyword(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 40) + "Para cancelar a NOTA fiscal use o menu." + strings.Repeat(" dolor sit", 40)
	got := Excerpt("Como cancelar nota?", text)

	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipses, got %q", got)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
	if n := utf8.RuneCountInString(inner); n > ExcerptWindow {
		t.Fatalf("excerpt longer than window: %d", n)
	}
	if !strings.Contains(strings.ToLower(inner), "cancelar") {
		t.Fatalf("expected keyword in excerpt, got %q", inner)
	}
}

func TestExcerptFallsBackToStart(t *testing.T) {
	text := "Início do texto\n\n  com   espaços " + strings.Repeat("x", 300)
	got := Excerpt("oi já", text)
	if !strings.HasPrefix(got, "...Início do texto com espaços ") {
		t.Fatalf("expected start of collapsed text, got %q", got[:40])
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
	if utf8.RuneCountInString(inner) != ExcerptWindow/2 {
		t.Fatalf("expected half window from start, got %d", utf8.RuneCountInString(inner))
	}
}

func TestExcerptUsesFirstTermFound(t *testing.T) {
	text := "abc balancete " + strings.Repeat("y", 200) + " lançamento"
	got := Excerpt("lançamento do balancete", text)
	if !strings.Contains(got, "lançamento") {
		t.Fatalf("expected first query term that occurs, got %q", got)
	}
}

func TestFormatCitationsDedupAndCap(t *testing.T) {
	passages := []docstore.Passage{
		{Document: "/srv/manuais/fiscal.pdf", Page: 1, Text: "a"},
		{Document: "fiscal.pdf", Page: 1, Text: "b"},
		{Document: "fiscal.pdf", Page: 2, Text: "c"},
		{Document: "folha.pdf", Page: 1, Text: "d"},
		{Document: "estoque.pdf", Page: 9, Text: "e"},
	}
	got := FormatCitations("q", passages, MaxCitations)
	if len(got) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(got))
	}
	if got[0].Document != "fiscal.pdf" || got[1].Page != 2 || got[2].Document != "folha.pdf" {
		t.Fatalf("unexpected citations %+v", got)
	}
	if FormatCitations("q", nil, MaxCitations) == nil {
		t.Fatalf("expected empty slice, not nil")
	}
}

func TestExcerptInvoiceImport(t *testing.T) {
	text := strings.Repeat("a ", 150) + "the invoice import screen shows error X" + strings.Repeat(" b", 150)
	got := Excerpt("invoice import", text)
	inner := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
	if utf8.RuneCountInString(inner) != ExcerptWindow {
		t.Fatalf("expected full window, got %d", utf8.RuneCountInString(inner))
	}
	idx := strings.Index(inner, "invoice")
	if idx != ExcerptWindow/2 {
		t.Fatalf("expected match centered in window, got index %d", idx)
	}
}
