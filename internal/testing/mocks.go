package testing

import (
	"sync"

	"github.com/aristath/helmsman/internal/domain"
)

// MockProvider is an in-memory market data provider for tests.
type MockProvider struct {
	mu      sync.RWMutex
	bars    map[string]domain.BarSeries
	sectors map[string]domain.BarSeries
	macro   map[string]domain.BarSeries
	bySym   map[string]string
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		bars:    make(map[string]domain.BarSeries),
		sectors: make(map[string]domain.BarSeries),
		macro:   make(map[string]domain.BarSeries),
		bySym:   make(map[string]string),
	}
}

func barKey(symbol string, timeframe domain.Timeframe) string {
	return symbol + "|" + string(timeframe)
}

// SetBars stores a symbol series.
func (m *MockProvider) SetBars(symbol string, timeframe domain.Timeframe, series domain.BarSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[barKey(symbol, timeframe)] = series
}

// SetSectorBars stores a sector series.
func (m *MockProvider) SetSectorBars(sector string, series domain.BarSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectors[sector] = series
}

// SetMacroBars stores a macro indicator series.
func (m *MockProvider) SetMacroBars(name string, series domain.BarSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.macro[name] = series
}

// SetSector maps a symbol to its sector.
func (m *MockProvider) SetSector(symbol, sector string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySym[symbol] = sector
}

// Bars implements marketdata.Provider.
func (m *MockProvider) Bars(symbol string, timeframe domain.Timeframe) (domain.BarSeries, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bars[barKey(symbol, timeframe)]
	return s, ok
}

// SectorBars implements marketdata.Provider.
func (m *MockProvider) SectorBars(sector string) (domain.BarSeries, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sectors[sector]
	return s, ok
}

// MacroBars implements marketdata.Provider.
func (m *MockProvider) MacroBars(name string) (domain.BarSeries, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.macro[name]
	return s, ok
}

// Sector implements marketdata.Provider.
func (m *MockProvider) Sector(symbol string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bySym[symbol]
	return s, ok
}

// Sectors implements marketdata.Provider.
func (m *MockProvider) Sectors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sectors))
	for name := range m.sectors {
		names = append(names, name)
	}
	return names
}
