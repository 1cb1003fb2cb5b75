package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Labels of the key-fundamentals list at the top of a company page. The
// site has renamed several of these over time, so aliases are kept.
var metricLabels = map[string]bool{
	"market cap":          true,
	"current price":       true,
	"high / low":          true,
	"high/low":            true,
	"stock p/e":           true,
	"p/e":                 true,
	"book value":          true,
	"dividend yield":      true,
	"roce":                true,
	"roce 3yr":            true,
	"roe":                 true,
	"roe 3yr":             true,
	"face value":          true,
	"price to book value": true,
	"price to book":       true,
}

var dec100 = decimal.NewFromInt(100)

// parseMetrics reads the key fundamentals list and derives Price/Book,
// the 52-week range, and YoY growth from the P&L statement.
func parseMetrics(doc *goquery.Document, pl Statement) Metrics {
	keyVals := make(map[string]string)
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		spans := li.Find("span")
		if spans.Length() < 2 {
			return
		}
		label := strings.ToLower(cleanText(spans.Eq(0).Text()))
		if !metricLabels[label] {
			return
		}
		if _, seen := keyVals[label]; seen {
			return
		}
		keyVals[label] = cleanText(spans.Eq(1).Text())
	})

	getAny := func(labels ...string) string {
		for _, l := range labels {
			if v, ok := keyVals[l]; ok {
				return v
			}
		}
		return ""
	}

	m := Metrics{
		MarketCap:     getAny("market cap"),
		CurrentPrice:  getAny("current price"),
		PERatio:       getAny("stock p/e", "p/e"),
		BookValue:     getAny("book value"),
		PriceToBook:   getAny("price to book value", "price to book"),
		DividendYield: getAny("dividend yield"),
		ROCE:          getAny("roce", "roce 3yr"),
		ROE:           getAny("roe", "roe 3yr"),
		FaceValue:     getAny("face value"),
	}

	if m.PriceToBook == "" {
		if ratio := ratioOf(m.CurrentPrice, m.BookValue); ratio != nil {
			m.PriceToBook = ratio.StringFixed(2)
		}
	}

	if highLow := getAny("high / low", "high/low"); highLow != "" {
		parts := strings.SplitN(strings.ReplaceAll(highLow, "₹", ""), "/", 2)
		if len(parts) == 2 {
			m.High52Week = strings.TrimSpace(parts[0])
			m.Low52Week = strings.TrimSpace(parts[1])
		}
	}

	m.SalesYoYPct = yearOnYear(pl, "Sales")
	m.ProfitYoYPct = yearOnYear(pl, "Net Profit")
	return m
}

func ratioOf(numRaw, denRaw string) *decimal.Decimal {
	num := parseNumber(numRaw)
	den := parseNumber(denRaw)
	if num == nil || den == nil || den.IsZero() {
		return nil
	}
	ratio := num.Div(*den)
	return &ratio
}

// yearOnYear computes growth between the last two full financial years.
// The final P&L column is the trailing-twelve-month figure, so the two
// columns before it are compared.
func yearOnYear(pl Statement, rowLabel string) *decimal.Decimal {
	if len(pl.Periods) < 3 {
		return nil
	}
	row, ok := pl.Row(rowLabel)
	if !ok {
		return nil
	}
	prevPeriod := pl.Periods[len(pl.Periods)-3]
	lastPeriod := pl.Periods[len(pl.Periods)-2]

	prev, okPrev := row.Value(prevPeriod)
	last, okLast := row.Value(lastPeriod)
	if !okPrev || !okLast || prev.IsZero() {
		return nil
	}
	growth := last.Div(prev).Sub(decimal.NewFromInt(1)).Mul(dec100)
	return &growth
}
