package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Daily price history and per-ticker loadings
	TTLPriceHistory   = 6 * time.Hour
	TTLFactorLoadings = 6 * time.Hour

	// Slow-moving reference data
	TTLFactorCatalog  = 24 * time.Hour
	TTLClassification = 24 * time.Hour // company profiles
	TTLFactorData     = 24 * time.Hour // French data library updates monthly, fetched daily

	// S&P 500 constituent sectors
	TTLSectorSnapshot = 7 * 24 * time.Hour
)
