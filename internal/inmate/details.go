package inmate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aisharvest/aisharvest/internal/config"
	"github.com/aisharvest/aisharvest/internal/model"
)

// sectionSeparator joins the items of a free-text section into one CSV
// cell. Chosen because it never appears in the site's data.
const sectionSeparator = " || "

// ParseDetailsPage flattens one detail page into output records.
//
// The page has four regions: a summary header, a demographics table, a
// few free-text sections, and the incarceration history. The first three
// are static per inmate; the history is a list of incarceration summaries
// each with zero or more sentence rows. The output is one record per
// sentence row with the static fields repeated, or a single record when
// the page carries no history.
//
// Design decision: parsing never fails. A region that is missing or
// oddly shaped contributes nothing, so a strange page degrades to a
// thinner record rather than poisoning the whole identifier. What counts
// as a failure is decided by the Fetcher (it could not get the page),
// not here.
func ParseDetailsPage(doc *goquery.Document, ais string, schema config.Schema) []model.Record {
	base := parseSummary(doc, ais, schema)
	base.Merge(parseDemographics(doc, schema))
	for _, label := range schema.TextSections {
		base[config.SectionColumn(label)] = sectionText(doc, label)
	}

	sentences := parseIncarcerationHistory(doc, schema)
	if len(sentences) == 0 {
		return []model.Record{base}
	}

	records := make([]model.Record, 0, len(sentences))
	for _, sentence := range sentences {
		record := base.Clone()
		record.Merge(sentence)
		records = append(records, record)
	}
	return records
}

// parseSummary extracts the header fields (name, identifier, institution)
// from the summary table. Row positions come from the schema because the
// table has no labels, just one span per row.
func parseSummary(doc *goquery.Document, ais string, schema config.Schema) model.Record {
	record := model.NewRecord(ais)

	table := doc.Find(schema.SummaryTableSelector()).First()
	if table.Length() == 0 {
		return record
	}

	rows := table.Find("tr")
	for position, column := range schema.SummaryRows {
		span := rows.Eq(position).Find("span").First()
		if span.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(span.Text())
		if text == "" && column == model.ColumnAIS {
			// Keep the requested number when the page renders the cell
			// empty; the search already proved which inmate this is.
			continue
		}
		record[column] = text
	}

	return record
}

// parseDemographics extracts the labeled key/value rows. Only rows with
// exactly two cells are data; everything else in the table is layout.
func parseDemographics(doc *goquery.Document, schema config.Schema) model.Record {
	fields := model.Record{}

	table := doc.Find(schema.DemographicsTableSelector()).First()
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}

		key := strings.TrimSpace(cells.Eq(0).Text())
		key = strings.TrimSpace(strings.TrimSuffix(key, ":"))
		if key == "" {
			return
		}
		fields[key] = strings.TrimSpace(cells.Eq(1).Text())
	})

	return fields
}

// sectionText extracts one free-text section ("Aliases", ...). The section
// has no addressable ID: its label sits in a div and the items follow as
// sibling spans, so the div is located by its text. An empty section, or
// the site's "No known <label>" placeholder, comes back as "".
func sectionText(doc *goquery.Document, label string) string {
	marker := label + ":"

	var header *goquery.Selection
	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if strings.Contains(div.Text(), marker) {
			header = div
			return false
		}
		return true
	})
	if header == nil {
		return ""
	}

	var items []string
	header.NextAllFiltered("span").Each(func(_ int, span *goquery.Selection) {
		items = append(items, strings.TrimSpace(span.Text()))
	})

	if len(items) == 0 || strings.Contains(items[0], "No known "+label) {
		return ""
	}
	return strings.Join(items, sectionSeparator)
}

// parseIncarcerationHistory extracts one record fragment per sentence row.
//
// The page renders one summary table per incarceration, all sharing a
// single element ID, with the i-th summary's sentence grid in a separate
// table whose ID carries the index. Summary fields are prefixed
// "Incarceration", sentence fields "Sentence", so the two levels cannot
// collide with each other or with the demographic columns.
//
// A summary without at least a header row and a value row is layout
// noise and is skipped. A summary without its nested sentence grid is
// skipped too: the site renders the pair together, so half of it alone
// means the page is not showing history.
func parseIncarcerationHistory(doc *goquery.Document, schema config.Schema) []model.Record {
	var sentences []model.Record

	doc.Find(schema.IncarcerationTableSelector()).Each(func(i int, summary *goquery.Selection) {
		rows := summary.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := cellTexts(rows.Eq(0), "td")
		values := cellTexts(rows.Eq(1), "td")
		info := model.Record{}
		for j, header := range headers {
			if j >= len(values) {
				break
			}
			info["Incarceration "+header] = values[j]
		}

		nested := doc.Find(schema.SentenceTableSelector(i)).First()
		if nested.Length() == 0 {
			return
		}
		nestedRows := nested.Find("tr")
		if nestedRows.Length() == 0 {
			return
		}

		sentenceHeaders := cellTexts(nestedRows.Eq(0), "th")
		for r := 1; r < nestedRows.Length(); r++ {
			sentence := info.Clone()
			for c, cell := range cellTexts(nestedRows.Eq(r), "td") {
				if c >= len(sentenceHeaders) {
					break
				}
				sentence["Sentence "+sentenceHeaders[c]] = cell
			}
			sentences = append(sentences, sentence)
		}
	})

	return sentences
}

// cellTexts returns the trimmed text of every cell matching selector
// inside row, in document order.
func cellTexts(row *goquery.Selection, selector string) []string {
	var texts []string
	row.Find(selector).Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})
	return texts
}
