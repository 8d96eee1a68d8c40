package classification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/domain"
)

// SnapshotKey is the sector_snapshot row holding the S&P 500 constituents.
const SnapshotKey = "sp500"

// SectorSnapshot is a list of index constituents with their GICS sector.
type SectorSnapshot struct {
	Stocks []SectorStock `json:"stocks"`
}

// SectorStock is one constituent.
type SectorStock struct {
	Symbol string `json:"symbol"`
	Sector string `json:"sector"`
}

// SectorSource resolves S&P 500 members to US classifications from the
// cached snapshot, falling back to a seed file shipped with the deployment.
type SectorSource struct {
	store    clientdata.Store
	seedPath string
	log      zerolog.Logger

	mu   sync.Mutex
	seed *SectorSnapshot
}

// NewSectorSource creates a sector source. store and seedPath are optional.
func NewSectorSource(store clientdata.Store, seedPath string, log zerolog.Logger) *SectorSource {
	return &SectorSource{
		store:    store,
		seedPath: seedPath,
		log:      log.With().Str("component", "sector_source").Logger(),
	}
}

// Map returns ticker → classification for every known constituent.
func (s *SectorSource) Map(ctx context.Context) map[string]domain.Classification {
	snapshot := s.cached(ctx)
	if snapshot == nil || len(snapshot.Stocks) == 0 {
		snapshot = s.loadSeed()
	}

	out := make(map[string]domain.Classification)
	if snapshot == nil {
		return out
	}
	for _, stock := range snapshot.Stocks {
		if stock.Symbol == "" {
			continue
		}
		sector := orDefault(stock.Sector, domain.UnknownSector)
		out[strings.ToUpper(stock.Symbol)] = domain.Classification{
			Region: "US",
			Sector: sector,
			Factor: FactorBucket(sector),
			Source: SourceSectorMap,
		}
	}
	return out
}

// Refresh copies the seed snapshot into the cache when the cached copy has
// expired. It reports how many constituents are cached afterwards.
func (s *SectorSource) Refresh(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	if cached := s.cached(ctx); cached != nil && len(cached.Stocks) > 0 {
		return len(cached.Stocks), nil
	}

	seed := s.loadSeed()
	if seed == nil || len(seed.Stocks) == 0 {
		return 0, nil
	}
	if err := s.store.Store(ctx, clientdata.TableSectorSnapshot, SnapshotKey, seed, clientdata.TTLSectorSnapshot); err != nil {
		return 0, fmt.Errorf("failed to cache sector snapshot: %w", err)
	}
	return len(seed.Stocks), nil
}

// Import stores a fresher snapshot, replacing the cached one.
func (s *SectorSource) Import(ctx context.Context, snapshot SectorSnapshot) error {
	if s.store == nil {
		return fmt.Errorf("no cache store configured")
	}
	return s.store.Store(ctx, clientdata.TableSectorSnapshot, SnapshotKey, snapshot, clientdata.TTLSectorSnapshot)
}

func (s *SectorSource) cached(ctx context.Context) *SectorSnapshot {
	if s.store == nil {
		return nil
	}
	raw, err := s.store.GetIfFresh(ctx, clientdata.TableSectorSnapshot, SnapshotKey)
	if err != nil || raw == nil {
		return nil
	}
	var snapshot SectorSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		s.log.Warn().Err(err).Msg("Ignoring corrupt cached sector snapshot")
		return nil
	}
	return &snapshot
}

func (s *SectorSource) loadSeed() *SectorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seed != nil || s.seedPath == "" {
		return s.seed
	}

	data, err := os.ReadFile(s.seedPath)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.seedPath).Msg("Sector seed unavailable")
		return nil
	}
	var snapshot SectorSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.log.Warn().Err(err).Str("path", s.seedPath).Msg("Sector seed is not valid JSON")
		return nil
	}
	s.seed = &snapshot
	return s.seed
}
