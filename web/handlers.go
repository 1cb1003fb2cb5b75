package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"screenerdash/scrape"
	"screenerdash/service"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// selectedTickers parses the tickers query parameter. The dashboard form
// repeats the parameter per selection, the API takes a comma-separated
// list; both forms are accepted and deduplicated.
func selectedTickers(r *http.Request) []string {
	var symbols []string
	seen := make(map[string]bool)
	for _, raw := range r.URL.Query()["tickers"] {
		for _, part := range strings.Split(raw, ",") {
			sym := strings.TrimSpace(part)
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

func (s *Server) handleTickers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Registry().Entries())
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	snap, err := s.svc.GetOrFetch(r.Context(), symbol)
	if err != nil {
		status := http.StatusBadGateway
		if scrape.IsNotFound(err) {
			status = http.StatusNotFound
		}
		var unknown *service.ErrUnknownTicker
		if errors.As(err, &unknown) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"name":     s.svc.Registry().Name(symbol),
		"snapshot": snap,
	})
}

// compareResponse renders one column per ticker plus the symbols that
// could not be fetched.
type compareResponse struct {
	Companies []compareCompany `json:"companies"`
	Failed    []compareFailure `json:"failed,omitempty"`
}

type compareCompany struct {
	Symbol  string         `json:"symbol"`
	Name    string         `json:"name"`
	Metrics scrape.Metrics `json:"metrics"`
}

type compareFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	symbols := selectedTickers(r)
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "tickers query parameter is required")
		return
	}

	resp := compareResponse{}
	for _, view := range s.svc.FetchAll(r.Context(), symbols) {
		if view.Err != nil {
			resp.Failed = append(resp.Failed, compareFailure{Symbol: view.Symbol, Error: view.ErrMessage()})
			continue
		}
		resp.Companies = append(resp.Companies, compareCompany{
			Symbol:  view.Symbol,
			Name:    view.Name,
			Metrics: view.Snapshot.Metrics,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
