package exchange

import (
	"sort"
	"sync/atomic"

	"cryptobridge/models"
)

// CatalogSnapshot is an immutable view of an exchange's markets. Callers
// must not modify returned markets.
type CatalogSnapshot struct {
	byID       map[string]models.Market
	bySymbol   map[string]models.Market
	symbols    []string
	currencies []string
}

func newSnapshot(markets []models.Market) *CatalogSnapshot {
	s := &CatalogSnapshot{
		byID:     make(map[string]models.Market, len(markets)),
		bySymbol: make(map[string]models.Market, len(markets)),
	}
	seen := map[string]struct{}{}
	for _, m := range markets {
		s.byID[m.ID] = m
		if _, dup := s.bySymbol[m.Symbol]; !dup {
			s.symbols = append(s.symbols, m.Symbol)
		}
		s.bySymbol[m.Symbol] = m
		for _, c := range []string{m.Base, m.Quote} {
			if c == "" {
				continue
			}
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				s.currencies = append(s.currencies, c)
			}
		}
	}
	sort.Strings(s.symbols)
	sort.Strings(s.currencies)
	return s
}

func (s *CatalogSnapshot) ByID(id string) (models.Market, bool) {
	m, ok := s.byID[id]
	return m, ok
}

func (s *CatalogSnapshot) BySymbol(symbol string) (models.Market, bool) {
	m, ok := s.bySymbol[symbol]
	return m, ok
}

// Symbols returns the unified symbols in sorted order.
func (s *CatalogSnapshot) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Markets returns all markets ordered by symbol.
func (s *CatalogSnapshot) Markets() []models.Market {
	out := make([]models.Market, 0, len(s.symbols))
	for _, sym := range s.symbols {
		out = append(out, s.bySymbol[sym])
	}
	return out
}

// Currencies is the currency registry derived from the markets.
func (s *CatalogSnapshot) Currencies() []string {
	return append([]string(nil), s.currencies...)
}

func (s *CatalogSnapshot) Len() int {
	return len(s.symbols)
}

// Catalog holds the current market snapshot. Refreshes swap the whole
// snapshot so readers see either the old or the new catalog, never a mix.
type Catalog struct {
	current atomic.Pointer[CatalogSnapshot]
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Snapshot returns the current snapshot or nil when nothing has loaded yet.
func (c *Catalog) Snapshot() *CatalogSnapshot {
	return c.current.Load()
}

// Replace builds a new snapshot from markets and installs it.
func (c *Catalog) Replace(markets []models.Market) *CatalogSnapshot {
	s := newSnapshot(markets)
	c.current.Store(s)
	return s
}

func (c *Catalog) Loaded() bool {
	return c.current.Load() != nil
}
