package web

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"screenerdash/registry"
	"screenerdash/scrape"
	"screenerdash/service"
)

//go:embed dashboard.html.tmpl
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// metricRow is one line of the fundamentals comparison table.
type metricRow struct {
	Label string
	Cells []string
}

// statementView is one company's statement rendered as a table.
type statementView struct {
	Name      string
	Statement scrape.Statement
}

// announcementItem is one document card with its share link.
type announcementItem struct {
	Title       string
	Detail      string
	URL         string
	WhatsAppURL string
}

type announcementView struct {
	Name  string
	Items []announcementItem
}

type statementSection struct {
	Kind      scrape.StatementKind
	Title     string
	Companies []statementView
}

type dashboardData struct {
	Options     []optionView
	HasSelected bool
	Headers     []string
	MetricRows  []metricRow
	Sections    []statementSection
	Announce    []announcementView
	Failed      []string
}

type optionView struct {
	registry.Entry
	Selected bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	symbols := selectedTickers(r)
	selected := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		selected[sym] = true
	}

	data := dashboardData{HasSelected: len(symbols) > 0}
	for _, e := range s.svc.Registry().Entries() {
		data.Options = append(data.Options, optionView{Entry: e, Selected: selected[e.Symbol]})
	}

	if len(symbols) > 0 {
		views := s.svc.FetchAll(r.Context(), symbols)
		var ok []service.CompanyView
		for _, v := range views {
			if v.Err != nil {
				data.Failed = append(data.Failed, v.Symbol)
				continue
			}
			ok = append(ok, v)
		}
		data.Headers = companyHeaders(ok)
		data.MetricRows = metricRows(ok)
		data.Sections = statementSections(ok)
		data.Announce = announcementViews(ok)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("render dashboard")
	}
}

func companyHeaders(views []service.CompanyView) []string {
	headers := make([]string, 0, len(views))
	for _, v := range views {
		headers = append(headers, fmt.Sprintf("%s (%s)", v.Name, v.Symbol))
	}
	return headers
}

// metricRows builds the comparison table, one metric per row and one
// company per column.
func metricRows(views []service.CompanyView) []metricRow {
	if len(views) == 0 {
		return nil
	}
	type metricDef struct {
		label string
		get   func(m scrape.Metrics) string
	}
	defs := []metricDef{
		{"Market Cap", func(m scrape.Metrics) string { return m.MarketCap }},
		{"Current Price", func(m scrape.Metrics) string { return m.CurrentPrice }},
		{"P/E Ratio", func(m scrape.Metrics) string { return m.PERatio }},
		{"Book Value", func(m scrape.Metrics) string { return m.BookValue }},
		{"Price / Book", func(m scrape.Metrics) string { return m.PriceToBook }},
		{"Dividend Yield", func(m scrape.Metrics) string { return m.DividendYield }},
		{"ROCE", func(m scrape.Metrics) string { return m.ROCE }},
		{"ROE", func(m scrape.Metrics) string { return m.ROE }},
		{"Face Value", func(m scrape.Metrics) string { return m.FaceValue }},
		{"52-Week High", func(m scrape.Metrics) string { return m.High52Week }},
		{"52-Week Low", func(m scrape.Metrics) string { return m.Low52Week }},
		{"Sales YoY %", func(m scrape.Metrics) string { return pctFmt(m.SalesYoYPct) }},
		{"Net Profit YoY %", func(m scrape.Metrics) string { return pctFmt(m.ProfitYoYPct) }},
	}

	rows := make([]metricRow, 0, len(defs))
	for _, def := range defs {
		row := metricRow{Label: def.label}
		for _, v := range views {
			row.Cells = append(row.Cells, orNA(def.get(v.Snapshot.Metrics)))
		}
		rows = append(rows, row)
	}
	return rows
}

func pctFmt(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(1) + " %"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func statementSections(views []service.CompanyView) []statementSection {
	sections := make([]statementSection, 0, len(scrape.Kinds))
	for _, kind := range scrape.Kinds {
		section := statementSection{Kind: kind, Title: kind.Title()}
		for _, v := range views {
			section.Companies = append(section.Companies, statementView{
				Name:      v.Name,
				Statement: v.Snapshot.Statement(kind),
			})
		}
		sections = append(sections, section)
	}
	return sections
}

func announcementViews(views []service.CompanyView) []announcementView {
	out := make([]announcementView, 0, len(views))
	for _, v := range views {
		av := announcementView{Name: v.Name}
		for _, a := range v.Snapshot.Announcements {
			av.Items = append(av.Items, announcementItem{
				Title:       a.Title,
				Detail:      a.Detail,
				URL:         a.URL,
				WhatsAppURL: whatsAppShareURL(v.Name, a),
			})
		}
		out = append(out, av)
	}
	return out
}

// whatsAppShareURL builds a wa.me share link carrying the announcement.
func whatsAppShareURL(name string, a scrape.Announcement) string {
	msg := strings.Join([]string{name, a.Title, a.Detail, a.URL}, "\n")
	return "https://wa.me/?text=" + url.QueryEscape(msg)
}
