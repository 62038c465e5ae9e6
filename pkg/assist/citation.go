package assist

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zen-systems/erpassist/pkg/docstore"
	"github.com/zen-systems/erpassist/pkg/images"
)

const (
	// ExcerptWindow is the number of characters kept around the matched term.
	ExcerptWindow = 240
	// MaxCitations caps the citations returned for one answer.
	MaxCitations = 3

	minTermLength = 4
)

var (
	wordPattern  = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Excerpt returns the part of text around the first question term (four or
// more characters) that occurs in it, or the start of text when none does.
// Whitespace is collapsed and the result is wrapped in ellipses.
func Excerpt(question, text string) string {
	clean := strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
	runes := []rune(clean)
	lower := strings.Map(unicode.ToLower, clean)

	pos := 0
	for _, term := range queryTerms(question) {
		if i := strings.Index(lower, term); i >= 0 {
			pos = utf8.RuneCountInString(lower[:i])
			break
		}
	}

	start := pos - ExcerptWindow/2
	if start < 0 {
		start = 0
	}
	end := pos + ExcerptWindow/2
	if end > len(runes) {
		end = len(runes)
	}
	return "..." + string(runes[start:end]) + "..."
}

func queryTerms(question string) []string {
	var terms []string
	for _, w := range wordPattern.FindAllString(strings.Map(unicode.ToLower, question), -1) {
		if utf8.RuneCountInString(w) >= minTermLength {
			terms = append(terms, w)
		}
	}
	return terms
}

type pageKey struct {
	document string
	page     int
}

type citedPage struct {
	pageKey
	source  string
	passage docstore.Passage
}

// uniquePages returns passages deduplicated by (document, page), keeping the
// first occurrence.
func uniquePages(passages []docstore.Passage) []citedPage {
	seen := make(map[pageKey]bool)
	var out []citedPage
	for _, p := range passages {
		key := pageKey{document: images.Stem(p.Document) + ".pdf", page: p.Page}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, citedPage{pageKey: key, source: p.Document, passage: p})
	}
	return out
}

// FormatCitations builds at most limit citations, one per (document, page).
func FormatCitations(question string, passages []docstore.Passage, limit int) []Citation {
	citations := []Citation{}
	for _, cp := range uniquePages(passages) {
		if len(citations) == limit {
			break
		}
		citations = append(citations, Citation{
			Document: cp.document,
			Page:     cp.page,
			Excerpt:  Excerpt(question, cp.passage.Text),
		})
	}
	return citations
}
