package sellerstats

import (
	"math"

	"github.com/shopspring/decimal"
)

func buildReport(ranked []*SellerStats) []SellerReport {
	out := make([]SellerReport, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, SellerReport{
			SellerID:    s.ID,
			Name:        s.Name,
			Revenue:     round2(s.Revenue),
			Profit:      round2(s.Profit),
			SalesCount:  s.SalesCount,
			TopProducts: s.TopProducts,
			Bonus:       round2(s.Bonus),
		})
	}
	return out
}

// round2 rounds the exact binary value of v half away from zero to two
// decimal places, so 1.005 (stored as 1.00499...) becomes 1.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, -30).Round(2).InexactFloat64()
}
