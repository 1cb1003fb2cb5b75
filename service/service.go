// Package service owns the get-or-fetch path between the ticker registry,
// the snapshot cache, and the scrape client.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"screenerdash/cache"
	"screenerdash/registry"
	"screenerdash/scrape"
)

// Fetcher is the narrow slice of the scrape client the service needs.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (*scrape.Snapshot, error)
}

// ErrUnknownTicker is returned for symbols that cannot be mapped to a
// screener code.
type ErrUnknownTicker struct {
	Symbol string
}

func (e *ErrUnknownTicker) Error() string {
	return fmt.Sprintf("no screener code for ticker %q", e.Symbol)
}

// Service memoizes company snapshots per screener code.
type Service struct {
	registry *registry.Registry
	fetcher  Fetcher
	store    cache.Store
	ttl      time.Duration
	logger   zerolog.Logger
}

// New constructs a snapshot service.
func New(reg *registry.Registry, fetcher Fetcher, store cache.Store, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{
		registry: reg,
		fetcher:  fetcher,
		store:    store,
		ttl:      ttl,
		logger:   logger.With().Str("component", "snapshot_service").Logger(),
	}
}

// Registry exposes the ticker master list.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// GetOrFetch returns the snapshot for a ticker symbol, from cache when a
// fresh one exists, scraping otherwise. Exactly one upstream fetch happens
// per stale lookup; a failed fetch leaves the cache untouched.
func (s *Service) GetOrFetch(ctx context.Context, symbol string) (*scrape.Snapshot, error) {
	code, ok := registry.SiteCode(symbol)
	if !ok {
		return nil, &ErrUnknownTicker{Symbol: symbol}
	}

	key := fmt.Sprintf("snapshot:%s", code)
	snap, err := cache.Memoize(ctx, s.store, key, s.ttl, func() (*scrape.Snapshot, error) {
		s.logger.Info().Str("symbol", symbol).Str("code", code).Msg("cache miss, scraping")
		return s.fetcher.Fetch(ctx, code)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("fetch failed")
		return nil, err
	}
	return snap, nil
}

// CompanyView pairs a ticker with its snapshot or fetch failure.
type CompanyView struct {
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name"`
	Snapshot *scrape.Snapshot `json:"snapshot,omitempty"`
	Err      error            `json:"-"`
}

// ErrMessage is the error string for JSON responses; empty on success.
func (v CompanyView) ErrMessage() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}

// FetchAll resolves each selected symbol independently, one synchronous
// fetch-or-hit per ticker. A failure for one ticker never blocks the rest.
func (s *Service) FetchAll(ctx context.Context, symbols []string) []CompanyView {
	views := make([]CompanyView, 0, len(symbols))
	for _, symbol := range symbols {
		view := CompanyView{Symbol: symbol, Name: s.registry.Name(symbol)}
		view.Snapshot, view.Err = s.GetOrFetch(ctx, symbol)
		views = append(views, view)
	}
	return views
}
