// Package holdings parses holdings uploads and serves the default holdings.
package holdings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/factorlens/internal/modules/analytics"
)

// ErrNoTickerColumn is returned when the header lacks a ticker column.
var ErrNoTickerColumn = errors.New("holdings CSV needs a ticker column")

// ParseCSV reads a holdings CSV. The header is required and matched case
// insensitively: ticker, then market_value or shares and price, and the
// optional kind, underlying, delta and expiration. Rows without a ticker or
// with a non-positive market value are dropped.
func ParseCSV(r io.Reader) ([]analytics.HoldingInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty holdings CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["ticker"]; !ok {
		return nil, ErrNoTickerColumn
	}

	out := make([]analytics.HoldingInput, 0)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read holdings row: %w", err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		ticker := strings.ToUpper(field("ticker"))

		var marketValue float64
		if _, ok := col["market_value"]; ok {
			marketValue = number(field("market_value"))
		} else {
			price := field("price")
			if price == "" {
				price = "0"
			}
			marketValue = number(field("shares")) * number(price)
		}

		if ticker == "" || math.IsNaN(marketValue) || math.IsInf(marketValue, 0) || marketValue <= 0 {
			continue
		}

		kind := analytics.KindEquity
		if strings.ToLower(field("kind")) == analytics.KindOption {
			kind = analytics.KindOption
		}

		delta := number(field("delta"))
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			delta = 1
		}

		out = append(out, analytics.HoldingInput{
			Ticker:      ticker,
			Kind:        kind,
			MarketValue: marketValue,
			Underlying:  strings.ToUpper(field("underlying")),
			Delta:       &delta,
			Expiration:  field("expiration"),
		})
	}

	return out, nil
}

// number parses a numeric cell. Empty or malformed cells are NaN.
func number(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
