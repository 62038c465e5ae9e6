package images

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestRelatedMatchesDocumentPage(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for _, name := range []string{
		"manual_nfe_page3_1.png",
		"manual_nfe_page3_0.jpeg",
		"manual_nfe_page30_1.png",
		"manual_nfe_page4_1.png",
		"outro_page3_1.png",
	} {
		if err := afero.WriteFile(fsys, filepath.Join("imgs", name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	loc := NewLocator(fsys, "imgs", "static/images/")
	got, err := loc.Related("docs/manual_nfe.pdf", 3)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	want := []string{"/static/images/manual_nfe_page3_0.jpeg", "/static/images/manual_nfe_page3_1.png"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestRelatedEscapesFileNames(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, filepath.Join("imgs", "Manual Fiscal_page3_1.png"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loc := NewLocator(fsys, "imgs", "/static/images")
	got, err := loc.Related("docs/Manual Fiscal.pdf", 3)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(got) != 1 || got[0] != "/static/images/Manual%20Fiscal_page3_1.png" {
		t.Fatalf("unexpected urls %v", got)
	}
	if loc.Dir() != "imgs" {
		t.Fatalf("unexpected dir %q", loc.Dir())
	}
}

func TestRelatedMissingDir(t *testing.T) {
	got, err := NewLocator(afero.NewMemMapFs(), "none", "/static/images").Related("a.pdf", 1)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no images and no error, got %v %v", got, err)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"docs/Manual Fiscal.pdf": "Manual Fiscal",
		"manual":                 "manual",
		`C:\docs\folha.pdf`:      "folha",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
