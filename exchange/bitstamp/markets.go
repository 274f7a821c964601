package bitstamp

import (
	"encoding/json"
	"fmt"
	"strings"

	"cryptobridge/exchange"
	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

type pairInfo struct {
	Name            string       `json:"name"`
	URLSymbol       string       `json:"url_symbol"`
	BaseDecimals    exchange.Int `json:"base_decimals"`
	CounterDecimals exchange.Int `json:"counter_decimals"`
	MinimumOrder    string       `json:"minimum_order"`
	Trading         string       `json:"trading"`
	Description     string       `json:"description"`
}

// parseMarkets converts a trading-pairs-info response. Disabled pairs are
// kept with Active set to false.
func parseMarkets(raw []byte) ([]models.Market, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]models.Market, 0, len(items))
	for _, item := range items {
		m, err := parseMarket(item)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func parseMarket(raw json.RawMessage) (models.Market, error) {
	var p pairInfo
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Market{}, err
	}
	base, quote, ok := strings.Cut(p.Name, "/")
	if !ok || base == "" || quote == "" {
		return models.Market{}, fmt.Errorf("unexpected pair name %q", p.Name)
	}
	if p.URLSymbol == "" {
		return models.Market{}, exchange.MissingField("url_symbol")
	}
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)

	m := models.Market{
		ID:     p.URLSymbol,
		Symbol: models.Symbol(base, quote),
		Base:   base,
		Quote:  quote,
		Active: p.Trading == "Enabled",
		Taker:  decimal.NewNullDecimal(fees.Trading.Taker),
		Maker:  decimal.NewNullDecimal(fees.Trading.Maker),
		Info:   raw,
	}
	if p.BaseDecimals.Set {
		places := int(p.BaseDecimals.Value)
		m.Precision.Amount = &places
		m.Lot = decimal.NewNullDecimal(models.PrecisionStep(places))
		m.Limits.Amount.Min = m.Lot
	}
	if p.CounterDecimals.Set {
		places := int(p.CounterDecimals.Value)
		m.Precision.Price = &places
		m.Limits.Price.Min = decimal.NewNullDecimal(models.PrecisionStep(places))
	}
	// minimum_order reads like "5.0 USD".
	if parts := strings.Fields(p.MinimumOrder); len(parts) > 0 {
		cost, err := decimal.NewFromString(parts[0])
		if err != nil {
			return models.Market{}, fmt.Errorf("invalid minimum_order %q: %w", p.MinimumOrder, err)
		}
		m.Limits.Cost.Min = decimal.NewNullDecimal(cost)
	}
	return m, nil
}
