package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	chart "github.com/wcharczuk/go-chart/v2"

	"screenerdash/scrape"
)

var kindsByName = map[string]scrape.StatementKind{
	string(scrape.KindProfitLoss):   scrape.KindProfitLoss,
	string(scrape.KindBalanceSheet): scrape.KindBalanceSheet,
	string(scrape.KindCashFlow):     scrape.KindCashFlow,
	string(scrape.KindShareholding): scrape.KindShareholding,
}

// handleChart renders one statement row as a PNG bar trend across periods.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol, kindName, rowLabel := vars["symbol"], vars["kind"], vars["row"]

	kind, ok := kindsByName[kindName]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown statement kind %q", kindName))
		return
	}

	snap, err := s.svc.GetOrFetch(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	row, ok := snap.Statement(kind).Row(rowLabel)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no row %q in %s", rowLabel, kindName))
		return
	}

	var bars []chart.Value
	for _, v := range row.Values {
		if v.Num == nil {
			continue
		}
		f, _ := v.Num.Float64()
		bars = append(bars, chart.Value{Label: v.Period, Value: f})
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("row %q has no numeric values", rowLabel))
		return
	}

	bc := chart.BarChart{
		Title:    fmt.Sprintf("%s: %s", s.svc.Registry().Name(symbol), row.Label),
		Height:   400,
		BarWidth: 40,
		Bars:     bars,
	}

	w.Header().Set("Content-Type", "image/png")
	if err := bc.Render(chart.PNG, w); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("render chart")
	}
}
