package analytics

import (
	"math"
	"strings"
)

// Holding kinds.
const (
	KindEquity = "equity"
	KindOption = "option"
)

// Holding is one portfolio position. Equity and Option are the only
// implementations; the engine works purely through EffectiveTicker and
// ExposureValue.
type Holding interface {
	Symbol() string
	Kind() string
	Value() float64
	EffectiveTicker() string
	ExposureValue() float64
}

// Equity is a directly held instrument.
type Equity struct {
	Ticker      string
	MarketValue float64
}

func (e Equity) Symbol() string          { return e.Ticker }
func (e Equity) Kind() string            { return KindEquity }
func (e Equity) Value() float64          { return e.MarketValue }
func (e Equity) EffectiveTicker() string { return e.Ticker }
func (e Equity) ExposureValue() float64  { return e.MarketValue }

// Option is a delta-adjusted position on an underlying.
type Option struct {
	Ticker      string
	Underlying  string
	Delta       float64 // clamped to [-1, 1]
	Expiration  string  // informational only
	MarketValue float64
}

func (o Option) Symbol() string { return o.Ticker }
func (o Option) Kind() string   { return KindOption }
func (o Option) Value() float64 { return o.MarketValue }

// EffectiveTicker is the underlying, or the option's own ticker when the
// underlying is missing.
func (o Option) EffectiveTicker() string {
	if o.Underlying != "" {
		return o.Underlying
	}
	return o.Ticker
}

// ExposureValue is the delta-adjusted market value.
func (o Option) ExposureValue() float64 { return o.MarketValue * o.Delta }

// ProxyUnderlying reports whether the option stands in for its own
// underlying because none was given.
func (o Option) ProxyUnderlying() bool { return o.Underlying == "" }

// HoldingInput is the loose shape holdings arrive in (JSON body, CSV row,
// defaults). Optional option fields may be absent.
type HoldingInput struct {
	Ticker      string   `json:"ticker" yaml:"ticker"`
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	MarketValue float64  `json:"marketValue" yaml:"marketValue"`
	Underlying  string   `json:"underlying,omitempty" yaml:"underlying,omitempty"`
	Delta       *float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
	Expiration  string   `json:"expiration,omitempty" yaml:"expiration,omitempty"`
}

// Normalize converts the input into its variant. Tickers are trimmed and
// upper-cased; a missing or non-finite delta means full exposure (1); delta
// is clamped to [-1, 1]. Anything other than "option" is an equity.
func (in HoldingInput) Normalize() Holding {
	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if strings.TrimSpace(in.Kind) != KindOption {
		return Equity{Ticker: ticker, MarketValue: in.MarketValue}
	}

	delta := 1.0
	if in.Delta != nil && !math.IsNaN(*in.Delta) && !math.IsInf(*in.Delta, 0) {
		delta = math.Max(-1, math.Min(1, *in.Delta))
	}
	return Option{
		Ticker:      ticker,
		Underlying:  strings.ToUpper(strings.TrimSpace(in.Underlying)),
		Delta:       delta,
		Expiration:  strings.TrimSpace(in.Expiration),
		MarketValue: in.MarketValue,
	}
}

// Input converts a holding back to its wire shape.
func Input(h Holding) HoldingInput {
	switch v := h.(type) {
	case Option:
		delta := v.Delta
		return HoldingInput{
			Ticker:      v.Ticker,
			Kind:        KindOption,
			MarketValue: v.MarketValue,
			Underlying:  v.Underlying,
			Delta:       &delta,
			Expiration:  v.Expiration,
		}
	default:
		return HoldingInput{Ticker: h.Symbol(), Kind: KindEquity, MarketValue: h.Value()}
	}
}

// IsValid reports whether a holding takes part in computation: a non-empty
// effective ticker, a finite positive market value and a finite exposure.
func IsValid(h Holding) bool {
	if h == nil || h.EffectiveTicker() == "" {
		return false
	}
	mv := h.Value()
	if !isFinite(mv) || mv <= 0 {
		return false
	}
	return isFinite(h.ExposureValue())
}

// NormalizeHoldings normalizes every input and drops invalid holdings.
func NormalizeHoldings(inputs []HoldingInput) []Holding {
	out := make([]Holding, 0, len(inputs))
	for _, in := range inputs {
		h := in.Normalize()
		if IsValid(h) {
			out = append(out, h)
		}
	}
	return out
}

// StructureWarnings lists options that need the user's attention: first the
// ones using their own ticker as a proxy, then the ones without expiration.
func StructureWarnings(holdings []Holding) []string {
	var proxies, expirations []string
	for _, h := range holdings {
		opt, ok := h.(Option)
		if !ok {
			continue
		}
		if opt.ProxyUnderlying() {
			proxies = append(proxies, opt.Ticker+": option missing underlying (using ticker as proxy)")
		}
		if opt.Expiration == "" {
			expirations = append(expirations, opt.Ticker+": option missing expiration date")
		}
	}
	return append(proxies, expirations...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
