package classification

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/domain"
	testingpkg "github.com/aristath/factorlens/internal/testing"
)

type stubSpark struct {
	metas map[string]yahoo.SparkMeta
	err   error
	calls int32
}

func (s *stubSpark) Spark(ctx context.Context, tickers []string) (map[string]yahoo.SparkMeta, []string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, nil, s.err
	}
	out := make(map[string]yahoo.SparkMeta)
	for _, t := range tickers {
		if m, ok := s.metas[t]; ok {
			out[t] = m
		}
	}
	return out, nil, nil
}

type stubProfiles struct {
	configured bool
	profiles   map[string]finnhub.Profile
}

func (s *stubProfiles) Configured() bool { return s.configured }

func (s *stubProfiles) Profile(ctx context.Context, ticker string) (finnhub.Profile, error) {
	if p, ok := s.profiles[ticker]; ok {
		return p, nil
	}
	return finnhub.Profile{}, finnhub.ErrNoProfile
}

func newSectorSource(t *testing.T) *SectorSource {
	path := testingpkg.WriteTempFile(t, "sector-ad.json", `{"stocks":[{"symbol":"DE","sector":"Industrials"}]}`)
	return NewSectorSource(nil, path, zerolog.Nop())
}

func TestClassify_SourcesInOrder(t *testing.T) {
	spark := &stubSpark{metas: map[string]yahoo.SparkMeta{
		"VOO":  {Market: "us_market", InstrumentType: "ETF"},
		"VALE": {ExchangeName: "NYSE", InstrumentType: "EQUITY"},
	}}
	profiles := &stubProfiles{configured: true, profiles: map[string]finnhub.Profile{
		"VALE":  {Ticker: "VALE", Country: "BR", Industry: "Metals & Mining"},
		"KMTUY": {Ticker: "KMTUY", Country: "JP", Industry: "Machinery"},
	}}

	svc := NewService(newSectorSource(t), spark, profiles, nil, nil, zerolog.Nop())
	got, warnings, err := svc.Classify(context.Background(), []string{"DE", "VOO", "VALE", "KMTUY", "NOPE"})
	require.NoError(t, err)

	assert.Equal(t, SourceSectorMap, got["DE"].Source)
	assert.Equal(t, "Cyclicals/Real Assets", got["DE"].Factor)

	assert.Equal(t, SourceSpark, got["VOO"].Source)
	assert.Equal(t, "ETF", got["VOO"].Sector)

	assert.Equal(t, SourceFinnhub, got["VALE"].Source)
	assert.Equal(t, "US", got["VALE"].Region, "spark region is kept")
	assert.Equal(t, "Metals & Mining", got["VALE"].Sector)

	assert.Equal(t, domain.Classification{Region: "Asia", Sector: "Machinery", Factor: "Machinery", Source: SourceFinnhub}, got["KMTUY"])

	assert.Equal(t, SourceNone, got["NOPE"].Source)
	assert.Equal(t, "Unknown", got["NOPE"].Region)
	assert.Equal(t, []string{"NOPE: missing spark row"}, warnings)
	assert.True(t, svc.FinnhubConfigured())
}

func TestClassify_SparkFailureWithoutFinnhub(t *testing.T) {
	spark := &stubSpark{err: errors.New("spark HTTP 429")}
	svc := NewService(nil, spark, &stubProfiles{}, nil, nil, zerolog.Nop())

	got, warnings, err := svc.Classify(context.Background(), []string{"ABC"})
	require.NoError(t, err)

	assert.Equal(t, "Unknown", got["ABC"].Sector)
	assert.Equal(t, []string{"ABC: spark HTTP 429"}, warnings)
	assert.False(t, svc.FinnhubConfigured())
}

func TestClassify_CachesLookups(t *testing.T) {
	db := testingpkg.NewTestDB(t, "cache")
	loader := clientdata.NewLoader(clientdata.NewRepository(db.Conn()), nil, zerolog.Nop())
	spark := &stubSpark{metas: map[string]yahoo.SparkMeta{"VOO": {Market: "us_market", InstrumentType: "ETF"}}}

	svc := NewService(nil, spark, nil, loader, nil, zerolog.Nop())
	_, _, err := svc.Classify(context.Background(), []string{"VOO"})
	require.NoError(t, err)
	got, _, err := svc.Classify(context.Background(), []string{"VOO"})
	require.NoError(t, err)

	assert.Equal(t, "ETF", got["VOO"].Sector)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spark.calls))
}

func TestResolve_OverridesFirst(t *testing.T) {
	spark := &stubSpark{metas: map[string]yahoo.SparkMeta{
		"VALE": {ExchangeName: "NYSE", InstrumentType: "EQUITY"},
	}}
	overrides := DefaultOverrides()
	overrides["VALE"] = domain.Classification{Region: "LatAm", Sector: "Materials"}

	svc := NewService(nil, spark, nil, nil, overrides, zerolog.Nop())
	got, warnings, err := svc.Resolve(context.Background(), []string{"VOO", "VALE"})
	require.NoError(t, err)

	assert.Equal(t, "US Beta", got["VOO"].Factor)
	assert.Equal(t, domain.Classification{Region: "LatAm", Sector: "Materials", Factor: "Unassigned", Source: SourceSpark}, got["VALE"])
	assert.Equal(t, []string{FinnhubMissingWarning}, warnings)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spark.calls), "VOO is fully overridden")
}

func TestResolve_AllOverridden(t *testing.T) {
	spark := &stubSpark{}
	svc := NewService(nil, spark, nil, nil, nil, zerolog.Nop())

	got, warnings, err := svc.Resolve(context.Background(), []string{"VOO", "XOM"})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Empty(t, warnings)
	assert.Equal(t, int32(0), atomic.LoadInt32(&spark.calls))
}
