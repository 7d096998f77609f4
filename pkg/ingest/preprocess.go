package ingest

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/clipperhouse/uax29/v2/graphemes"
)

// looksLikeHTML is a cheap heuristic — real sniffing belongs to the source
// system, this pipeline only needs to decide whether to run the HTML path.
func looksLikeHTML(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<table") || strings.Contains(lower, "<p>")
}

// Preprocess converts HTML source documents to markdown (preserving table
// structure, which a naive tag-stripping pass would lose) and leaves
// plain-text input untouched.
func Preprocess(raw string) (string, error) {
	if !looksLikeHTML(raw) {
		return raw, nil
	}

	markdown, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return raw, err
	}

	tables, err := extractTables(raw)
	if err != nil {
		return markdown, nil
	}
	if tables == "" {
		return markdown, nil
	}
	return markdown + "\n\n" + tables, nil
}

// extractTables pulls tabular data goquery-style, row by row, since
// html-to-markdown's table support can lose cell structure on deeply nested
// source documents.
func extractTables(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				b.WriteString(strings.Join(cells, " | "))
				b.WriteString("\n")
			}
		})
	})
	return b.String(), nil
}

// TruncateGraphemeSafe truncates s to at most maxGraphemes user-perceived
// characters, never splitting a multi-codepoint grapheme cluster — unlike a
// byte- or rune-indexed slice, which can corrupt combining-mark sequences.
func TruncateGraphemeSafe(s string, maxGraphemes int) string {
	segments := graphemes.FromString(s)
	var b strings.Builder
	count := 0
	for segments.Next() {
		if count >= maxGraphemes {
			break
		}
		b.WriteString(segments.Value())
		count++
	}
	return b.String()
}
