package models

import "github.com/shopspring/decimal"

// FeeTier applies Rate once the 30 day volume reaches Volume.
type FeeTier struct {
	Volume decimal.Decimal
	Rate   decimal.Decimal
}

type TradingFees struct {
	TierBased  bool
	Percentage bool
	Maker      decimal.Decimal
	Taker      decimal.Decimal
	MakerTiers []FeeTier
	TakerTiers []FeeTier
}

type FundingFees struct {
	TierBased  bool
	Percentage bool
	Withdraw   map[string]decimal.Decimal
	Deposit    map[string]decimal.Decimal
}

type FeeSchedule struct {
	Trading TradingFees
	Funding FundingFees
}

// MakerRate returns the maker fee for the given 30 day volume.
func (f TradingFees) MakerRate(volume decimal.Decimal) decimal.Decimal {
	return tierRate(f.MakerTiers, volume, f.Maker)
}

// TakerRate returns the taker fee for the given 30 day volume.
func (f TradingFees) TakerRate(volume decimal.Decimal) decimal.Decimal {
	return tierRate(f.TakerTiers, volume, f.Taker)
}

// tiers must be sorted by ascending volume.
func tierRate(tiers []FeeTier, volume, flat decimal.Decimal) decimal.Decimal {
	rate := flat
	for _, t := range tiers {
		if volume.LessThan(t.Volume) {
			break
		}
		rate = t.Rate
	}
	return rate
}
