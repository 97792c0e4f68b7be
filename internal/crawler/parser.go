package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aisharvest/aisharvest/internal/config"
)

// Identifiers extracts the AIS numbers from one results page.
//
// Design decision: a row counts as a hit when the text of its first cell
// is a bare digit string, because:
//  1. Header, pager, and "no results" filler rows all carry non-numeric
//     first cells, so digit matching separates data rows from grid chrome
//  2. The grid's CSS classes have changed across site revisions while the
//     column layout has not
//  3. It needs no per-column schema beyond the table's element ID
func Identifiers(doc *goquery.Document, schema config.Schema) map[string]struct{} {
	found := make(map[string]struct{})

	table := doc.Find(schema.ResultsTableSelector()).First()
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}
		if id := strings.TrimSpace(cell.Text()); isDigits(id) {
			found[id] = struct{}{}
		}
	})

	return found
}

// NextPageTarget returns the form name of the enabled next-page button.
// It reports false when the grid has no further pages: the button is
// either absent (single-page result sets omit the pager entirely) or
// rendered with the disabled attribute once the last page is shown.
func NextPageTarget(doc *goquery.Document, schema config.Schema) (string, bool) {
	button := doc.Find(schema.NextButtonSelector()).First()
	if button.Length() == 0 {
		return "", false
	}
	if _, disabled := button.Attr("disabled"); disabled {
		return "", false
	}

	name, ok := button.Attr("name")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// isDigits reports whether s is a non-empty ASCII digit string.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
