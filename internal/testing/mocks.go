package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/factorlens/internal/domain"
)

// MockPriceProvider is a mock implementation of domain.PriceHistoryProvider for testing
type MockPriceProvider struct {
	mu     sync.RWMutex
	series map[string]domain.PriceSeries
	errs   map[string]error
	calls  map[string]int
}

// NewMockPriceProvider creates a new mock price provider
func NewMockPriceProvider() *MockPriceProvider {
	return &MockPriceProvider{
		series: make(map[string]domain.PriceSeries),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// SetSeries sets the series returned for ticker
func (m *MockPriceProvider) SetSeries(ticker string, series domain.PriceSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[ticker] = series
}

// SetError makes every request for ticker fail
func (m *MockPriceProvider) SetError(ticker string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[ticker] = err
}

// Calls returns how often ticker was requested
func (m *MockPriceProvider) Calls(ticker string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[ticker]
}

// History implements domain.PriceHistoryProvider
func (m *MockPriceProvider) History(ctx context.Context, ticker string) (domain.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[ticker]++
	if err := m.errs[ticker]; err != nil {
		return nil, err
	}
	series, ok := m.series[ticker]
	if !ok {
		return nil, fmt.Errorf("no price data for %s", ticker)
	}
	return series, nil
}

// MockFactorProvider is a mock implementation of domain.FactorDataProvider for testing
type MockFactorProvider struct {
	mu    sync.RWMutex
	set   domain.FactorSet
	err   error
	calls int
}

// NewMockFactorProvider creates a mock returning set
func NewMockFactorProvider(set domain.FactorSet) *MockFactorProvider {
	return &MockFactorProvider{set: set}
}

// SetError sets the error to return
func (m *MockFactorProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of DailyFactors calls
func (m *MockFactorProvider) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// DailyFactors implements domain.FactorDataProvider
func (m *MockFactorProvider) DailyFactors(ctx context.Context) (domain.FactorSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return domain.FactorSet{}, m.err
	}
	return m.set, nil
}

// MockClassificationProvider is a mock implementation of domain.ClassificationProvider for testing
type MockClassificationProvider struct {
	mu       sync.RWMutex
	known    map[string]domain.Classification
	err      error
	requests [][]string
}

// NewMockClassificationProvider creates a mock that knows the given tickers
func NewMockClassificationProvider(known map[string]domain.Classification) *MockClassificationProvider {
	if known == nil {
		known = make(map[string]domain.Classification)
	}
	return &MockClassificationProvider{known: known}
}

// SetError sets the error to return
func (m *MockClassificationProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns every ticker batch passed to Classify
func (m *MockClassificationProvider) Requests() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]string(nil), m.requests...)
}

// Classify implements domain.ClassificationProvider
func (m *MockClassificationProvider) Classify(ctx context.Context, tickers []string) (map[string]domain.Classification, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, append([]string(nil), tickers...))
	if m.err != nil {
		return nil, nil, m.err
	}

	out := make(map[string]domain.Classification)
	var warnings []string
	for _, t := range tickers {
		if c, ok := m.known[t]; ok {
			out[t] = c
			continue
		}
		out[t] = domain.UnknownClassification()
		warnings = append(warnings, t+": missing spark row")
	}
	return out, warnings, nil
}

// Resolve behaves like Classify; the mock has no overrides to apply
func (m *MockClassificationProvider) Resolve(ctx context.Context, tickers []string) (map[string]domain.Classification, []string, error) {
	return m.Classify(ctx, tickers)
}
