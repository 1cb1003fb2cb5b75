// Package registry loads the company master list and maps tickers to
// screener.in company codes.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Entry is one company from the master list.
type Entry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Label returns the display label used in the ticker dropdown.
func (e Entry) Label() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.Symbol)
}

// specialCodes overrides symbols whose screener code is not derivable
// from the ticker itself.
var specialCodes = map[string]string{
	"RAJESH.BO": "544291", // Rajesh Power Services, BSE numeric code
}

// Registry holds the immutable ticker master list. Loaded once at startup,
// read-only afterwards.
type Registry struct {
	entries []Entry
	bySym   map[string]Entry
}

// Load reads the master list CSV from path. The process cannot serve
// without it, so any failure here is returned to the caller to abort on.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open master list: %w", err)
	}
	defer f.Close()

	reg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse master list %s: %w", path, err)
	}
	return reg, nil
}

// Parse reads the master list from r. The header is located with the same
// tolerance the exchange dumps require: exact "Ticker"/"CompanyName" first,
// then case-insensitive, then guarded partial matches that skip the
// NSE_/BSE_ prefixed symbol and name columns.
func Parse(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	tickerCol := findColumn(header, "ticker", "symbol")
	nameCol := findColumn(header, "companyname", "name")
	if tickerCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("required columns not found, have %v", header)
	}

	reg := &Registry{bySym: make(map[string]Entry)}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if tickerCol >= len(rec) || nameCol >= len(rec) {
			continue
		}
		sym := strings.TrimSpace(rec[tickerCol])
		name := strings.TrimSpace(rec[nameCol])
		if sym == "" || name == "" {
			continue
		}
		if _, dup := reg.bySym[sym]; dup {
			continue
		}
		e := Entry{Symbol: sym, Name: name}
		reg.entries = append(reg.entries, e)
		reg.bySym[sym] = e
	}

	if len(reg.entries) == 0 {
		return nil, fmt.Errorf("master list contains no usable rows")
	}

	sort.Slice(reg.entries, func(i, j int) bool {
		return reg.entries[i].Name < reg.entries[j].Name
	})
	return reg, nil
}

// findColumn locates a header column for the given canonical name. exact
// match wins, then case-insensitive, then a partial match that ignores the
// exchange-specific NSE_*/BSE_* columns.
func findColumn(header []string, canonical, partial string) int {
	for i, h := range header {
		if strings.EqualFold(h, canonical) {
			return i
		}
	}
	for i, h := range header {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "nse") || strings.Contains(lower, "bse") {
			continue
		}
		if strings.Contains(lower, partial) {
			return i
		}
	}
	return -1
}

// Lookup returns the entry for a ticker symbol.
func (r *Registry) Lookup(symbol string) (Entry, bool) {
	e, ok := r.bySym[symbol]
	return e, ok
}

// Name returns the display name for a symbol, falling back to the symbol
// itself for tickers not in the master list.
func (r *Registry) Name(symbol string) string {
	if e, ok := r.bySym[symbol]; ok {
		return e.Name
	}
	return symbol
}

// Entries returns the full list, sorted by company name.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Len reports the number of companies loaded.
func (r *Registry) Len() int {
	return len(r.entries)
}

// SiteCode converts a yfinance-style ticker to the screener.in company code.
// NSE tickers drop the .NS suffix; numeric BSE tickers drop .BO; anything
// else with an exchange suffix keeps the stem. Returns false when the
// symbol cannot be mapped.
func SiteCode(symbol string) (string, bool) {
	if symbol == "" {
		return "", false
	}
	if code, ok := specialCodes[symbol]; ok {
		return code, true
	}
	if stem := strings.TrimSuffix(symbol, ".NS"); stem != symbol {
		return stem, stem != ""
	}
	if strings.HasSuffix(symbol, ".BO") {
		stem := symbol[:len(symbol)-3]
		if isDigits(stem) {
			return stem, true
		}
	}
	if i := strings.IndexByte(symbol, '.'); i > 0 {
		return symbol[:i], true
	}
	return symbol, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
