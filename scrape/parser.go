package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Each statement table is recognised by line items that only it carries,
// not by markup classes, so cosmetic site changes don't break parsing.
type tableMarker struct {
	all []string // every marker must appear in the first column
	any []string // at least one marker must appear
}

var statementMarkers = map[StatementKind]tableMarker{
	KindProfitLoss:   {all: []string{"sales", "net profit"}},
	KindBalanceSheet: {all: []string{"equity capital", "total assets"}},
	KindCashFlow:     {all: []string{"cash from operating activity", "net cash flow"}},
	KindShareholding: {any: []string{"promoter"}},
}

// parseStatement locates and parses one statement table. A missing or
// unrecognisable section yields an empty statement.
func parseStatement(doc *goquery.Document, kind StatementKind) Statement {
	st := Statement{Kind: kind}
	marker, ok := statementMarkers[kind]
	if !ok {
		return st
	}

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := tableRows(table)
		if len(rows) < 2 {
			return true
		}
		if !marker.matches(firstColumn(rows)) {
			return true
		}
		st.Periods, st.Records = buildRecords(rows)
		return false
	})
	return st
}

func (m tableMarker) matches(firstCol string) bool {
	for _, want := range m.all {
		if !strings.Contains(firstCol, want) {
			return false
		}
	}
	if len(m.any) == 0 {
		return len(m.all) > 0
	}
	for _, want := range m.any {
		if strings.Contains(firstCol, want) {
			return true
		}
	}
	return false
}

// tableRows flattens a table into rows of cleaned cell text.
func tableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanText(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

func firstColumn(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.ToLower(row[0]))
		b.WriteByte('\n')
	}
	return b.String()
}

// buildRecords turns header+body rows into periods and line items. The
// first header cell names the particulars column and is dropped.
func buildRecords(rows [][]string) ([]string, []Record) {
	header := rows[0]
	periods := make([]string, 0, len(header)-1)
	for _, p := range header[1:] {
		periods = append(periods, p)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		label := strings.TrimRight(strings.TrimSpace(row[0]), " +")
		if label == "" {
			continue
		}
		rec := Record{Label: label}
		for i, raw := range row[1:] {
			if i >= len(periods) {
				break
			}
			rec.Values = append(rec.Values, Value{
				Period: periods[i],
				Raw:    raw,
				Num:    parseNumber(raw),
			})
		}
		records = append(records, rec)
	}
	return periods, records
}

var titleSplit = regexp.MustCompile(`\s+-\s+`)

// parseAnnouncements extracts the latest company documents. The section is
// found by heading text, falling back to a list whose class mentions
// announcements; neither being present is not an error.
func parseAnnouncements(doc *goquery.Document, baseURL string, maxItems int) []Announcement {
	section := findAnnouncementSection(doc)
	if section == nil {
		return nil
	}

	var items []Announcement
	section.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if len(items) >= maxItems {
			return false
		}
		link := li.Find("a").First()
		if link.Length() == 0 {
			return true
		}

		rawTitle := cleanText(link.Text())
		title, rest := rawTitle, ""
		if parts := titleSplit.Split(rawTitle, 2); len(parts) == 2 {
			title, rest = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
		if title == "" {
			return true
		}

		// Whatever the list item carries beyond the link text becomes the
		// secondary date/summary line.
		after := strings.TrimSpace(strings.Replace(cleanText(li.Text()), rawTitle, "", 1))
		var detailParts []string
		for _, p := range []string{rest, after} {
			if p != "" {
				detailParts = append(detailParts, p)
			}
		}

		href, _ := link.Attr("href")
		if href != "" && !strings.HasPrefix(href, "http") {
			href = baseURL + href
		}

		items = append(items, Announcement{
			Title:  title,
			Detail: strings.Join(detailParts, " - "),
			URL:    href,
		})
		return true
	})
	return items
}

func findAnnouncementSection(doc *goquery.Document) *goquery.Selection {
	var section *goquery.Selection
	doc.Find("h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(h.Text()), "announcement") {
			section = h.Parent()
			return false
		}
		return true
	})
	if section != nil {
		return section
	}
	doc.Find("ul").EachWithBreak(func(_ int, ul *goquery.Selection) bool {
		class, _ := ul.Attr("class")
		if strings.Contains(strings.ToLower(class), "announcement") {
			section = ul
			return false
		}
		return true
	})
	return section
}
