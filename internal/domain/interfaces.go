package domain

import "context"

// PriceHistoryProvider returns the daily adjusted-close history of a ticker.
type PriceHistoryProvider interface {
	History(ctx context.Context, ticker string) (PriceSeries, error)
}

// FactorDataProvider returns daily Fama-French factor rows.
type FactorDataProvider interface {
	DailyFactors(ctx context.Context) (FactorSet, error)
}

// ClassificationProvider classifies a batch of tickers. Every ticker gets an
// entry; tickers no source knows get UnknownClassification and a warning.
type ClassificationProvider interface {
	Classify(ctx context.Context, tickers []string) (map[string]Classification, []string, error)
}
