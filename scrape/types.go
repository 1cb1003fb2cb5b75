// Package scrape fetches screener.in company pages and parses them into
// structured financial statements.
package scrape

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementKind identifies one of the statement tables on a company page.
type StatementKind string

const (
	KindProfitLoss   StatementKind = "profit_loss"
	KindBalanceSheet StatementKind = "balance_sheet"
	KindCashFlow     StatementKind = "cash_flow"
	KindShareholding StatementKind = "shareholding"
)

// Kinds lists every statement kind in display order.
var Kinds = []StatementKind{KindProfitLoss, KindBalanceSheet, KindCashFlow, KindShareholding}

// Title returns the human heading for a statement kind.
func (k StatementKind) Title() string {
	switch k {
	case KindProfitLoss:
		return "Profit & Loss"
	case KindBalanceSheet:
		return "Balance Sheet"
	case KindCashFlow:
		return "Cash Flows"
	case KindShareholding:
		return "Shareholding Pattern"
	}
	return string(k)
}

// Value is one cell of a statement row: the reporting period it belongs to,
// the raw cell text, and the parsed number when the cell holds one.
type Value struct {
	Period string           `json:"period"`
	Raw    string           `json:"raw"`
	Num    *decimal.Decimal `json:"num,omitempty"`
}

// Record is one line item of a statement.
type Record struct {
	Label  string  `json:"label"`
	Values []Value `json:"values"`
}

// Value returns the parsed number for a period, if present.
func (r Record) Value(period string) (decimal.Decimal, bool) {
	for _, v := range r.Values {
		if v.Period == period && v.Num != nil {
			return *v.Num, true
		}
	}
	return decimal.Decimal{}, false
}

// Statement is one parsed statement table. A section the page does not
// carry parses to a Statement with no records, never an error.
type Statement struct {
	Kind    StatementKind `json:"kind"`
	Periods []string      `json:"periods"`
	Records []Record      `json:"records"`
}

// Empty reports whether the section was missing or unparseable.
func (s Statement) Empty() bool {
	return len(s.Records) == 0
}

// Row finds a record by its label, case-insensitively.
func (s Statement) Row(label string) (Record, bool) {
	for _, r := range s.Records {
		if equalFold(r.Label, label) {
			return r, true
		}
	}
	return Record{}, false
}

// Metrics are the key fundamentals from the top of the company page, plus
// values derived from them. String fields keep screener's own formatting
// ("₹ 1,234 Cr."); derived ratios are computed only when their inputs parse.
type Metrics struct {
	MarketCap     string `json:"marketCap,omitempty"`
	CurrentPrice  string `json:"currentPrice,omitempty"`
	PERatio       string `json:"peRatio,omitempty"`
	BookValue     string `json:"bookValue,omitempty"`
	PriceToBook   string `json:"priceToBook,omitempty"`
	DividendYield string `json:"dividendYield,omitempty"`
	ROCE          string `json:"roce,omitempty"`
	ROE           string `json:"roe,omitempty"`
	FaceValue     string `json:"faceValue,omitempty"`
	High52Week    string `json:"high52Week,omitempty"`
	Low52Week     string `json:"low52Week,omitempty"`

	SalesYoYPct  *decimal.Decimal `json:"salesYoYPct,omitempty"`
	ProfitYoYPct *decimal.Decimal `json:"profitYoYPct,omitempty"`
}

// Announcement is one entry of the company documents section.
type Announcement struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Snapshot is everything fetched for one company in a single scrape pass.
// All statements come from the same page fetch, so the snapshot is always
// internally consistent; a refresh replaces it wholesale.
type Snapshot struct {
	SiteID        string                      `json:"siteId"`
	SourceURL     string                      `json:"sourceUrl"`
	Statements    map[StatementKind]Statement `json:"statements"`
	Metrics       Metrics                     `json:"metrics"`
	Announcements []Announcement              `json:"announcements,omitempty"`
	FetchedAt     time.Time                   `json:"fetchedAt"`
}

// Statement returns the statement of the given kind, empty if absent.
func (s *Snapshot) Statement(kind StatementKind) Statement {
	if st, ok := s.Statements[kind]; ok {
		return st
	}
	return Statement{Kind: kind}
}
