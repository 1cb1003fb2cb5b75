package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenerdash/cache"
	"screenerdash/config"
	"screenerdash/registry"
	"screenerdash/scrape"
	"screenerdash/service"
)

type fakeFetcher struct {
	fail map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, code string) (*scrape.Snapshot, error) {
	if err := f.fail[code]; err != nil {
		return nil, err
	}
	sales := decimal.NewFromInt(1500)
	prior := decimal.NewFromInt(1200)
	growth := decimal.RequireFromString("25")
	return &scrape.Snapshot{
		SiteID:    code,
		SourceURL: fmt.Sprintf("https://example.com/company/%s/", code),
		Statements: map[scrape.StatementKind]scrape.Statement{
			scrape.KindProfitLoss: {
				Kind:    scrape.KindProfitLoss,
				Periods: []string{"Mar 2023", "Mar 2024"},
				Records: []scrape.Record{{
					Label: "Sales",
					Values: []scrape.Value{
						{Period: "Mar 2023", Raw: "1,200", Num: &prior},
						{Period: "Mar 2024", Raw: "1,500", Num: &sales},
					},
				}},
			},
		},
		Metrics: scrape.Metrics{
			MarketCap:   "₹ 1,000 Cr.",
			PERatio:     "25.4",
			SalesYoYPct: &growth,
		},
		Announcements: []scrape.Announcement{{
			Title:  "Board Meeting Intimation",
			Detail: "12 Aug",
			URL:    "https://example.com/announcement/1",
		}},
		FetchedAt: time.Now().UTC(),
	}, nil
}

func newTestServer(t *testing.T, fetcher service.Fetcher) *httptest.Server {
	t.Helper()
	reg, err := registry.Parse(strings.NewReader(
		"Ticker,CompanyName\nINFY.NS,Infosys\nTCS.NS,Tata Consultancy Services\nDEAD.NS,Defunct Ltd\n"))
	require.NoError(t, err)

	svc := service.New(reg, fetcher, cache.NewMemoryStore(), time.Minute, zerolog.Nop())
	srv := httptest.NewServer(NewServer(config.ServerConfig{}, svc, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestDashboardWithoutSelection(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please select at least one stock.")
	assert.Contains(t, body, "Infosys (INFY.NS)")
}

func TestDashboardRendersSelection(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, body := get(t, srv.URL+"/?tickers=INFY.NS,TCS.NS")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, body, "Infosys (INFY.NS)")
	assert.Contains(t, body, "Tata Consultancy Services (TCS.NS)")
	assert.Contains(t, body, "1,500")
	assert.Contains(t, body, "25.0 %")
	assert.Contains(t, body, "Board Meeting Intimation")
	assert.Contains(t, body, "https://wa.me/?text=")
	assert.NotContains(t, body, "Could not fetch data")
}

func TestDashboardIsolatesFailedTicker(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{fail: map[string]error{"DEAD": errors.New("upstream down")}})

	resp, body := get(t, srv.URL+"/?tickers=INFY.NS,DEAD.NS")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Contains(t, body, "Could not fetch data for: DEAD.NS")
	assert.Contains(t, body, "Infosys (INFY.NS)", "healthy tickers still render")
	assert.Contains(t, body, "1,500")
}

func TestAPITickers(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, body := get(t, srv.URL+"/api/tickers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var entries []registry.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	assert.Len(t, entries, 3)
}

func TestAPICompany(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, body := get(t, srv.URL+"/api/company/INFY.NS")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Symbol   string           `json:"symbol"`
		Name     string           `json:"name"`
		Snapshot *scrape.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "Infosys", payload.Name)
	require.NotNil(t, payload.Snapshot)
	assert.Equal(t, "INFY", payload.Snapshot.SiteID)
}

func TestAPICompanyFetchFailure(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{fail: map[string]error{"DEAD": errors.New("upstream down")}})

	resp, _ := get(t, srv.URL+"/api/company/DEAD.NS")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestAPICompare(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{fail: map[string]error{"DEAD": errors.New("upstream down")}})

	resp, body := get(t, srv.URL+"/api/compare?tickers=INFY.NS,DEAD.NS")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload compareResponse
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	require.Len(t, payload.Companies, 1)
	assert.Equal(t, "INFY.NS", payload.Companies[0].Symbol)
	require.Len(t, payload.Failed, 1)
	assert.Equal(t, "DEAD.NS", payload.Failed[0].Symbol)
}

func TestAPICompareRequiresTickers(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, _ := get(t, srv.URL+"/api/compare")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChartEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, body := get(t, srv.URL+"/api/chart/INFY.NS/profit_loss/Sales")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"), "response should be a PNG image")
}

func TestChartUnknownKind(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, _ := get(t, srv.URL+"/api/chart/INFY.NS/quarterly/Sales")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChartUnknownRow(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, _ := get(t, srv.URL+"/api/chart/INFY.NS/profit_loss/Nonexistent")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}
