package exchange

import (
	"sort"

	"cryptobridge/models"
)

// FilterTrades orders trades by timestamp, drops those before since and
// keeps at most limit of the earliest remaining ones. Zero since or limit
// disables the respective filter.
func FilterTrades(trades []models.Trade, since int64, limit int) []models.Trade {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})
	out := trades[:0]
	for _, t := range trades {
		if since > 0 && t.Timestamp < since {
			continue
		}
		out = append(out, t)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
