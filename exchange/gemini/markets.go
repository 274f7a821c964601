package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"cryptobridge/models"

	"github.com/shopspring/decimal"
)

// parseMarkets converts the symbols listing. Gemini ids are six letters,
// the first three naming the base currency.
func parseMarkets(raw []byte) ([]models.Market, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	out := make([]models.Market, 0, len(ids))
	for _, id := range ids {
		upper := strings.ToUpper(id)
		if len(upper) < 4 {
			return nil, fmt.Errorf("unexpected symbol id %q", id)
		}
		base, quote := upper[:3], upper[3:]
		info, _ := json.Marshal(id)
		out = append(out, models.Market{
			ID:     id,
			Symbol: models.Symbol(base, quote),
			Base:   base,
			Quote:  quote,
			Active: true,
			Taker:  decimal.NewNullDecimal(takerFee),
			Info:   info,
		})
	}
	return out, nil
}
