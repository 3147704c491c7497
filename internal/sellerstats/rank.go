package sellerstats

import (
	"math"
	"sort"
	"strconv"
)

// TopProductsLimit caps the number of products reported per seller.
const TopProductsLimit = 10

// rank orders the accumulators by profit, highest first, and assigns each
// seller its bonus and top products. Ties keep their input order.
func rank(stats []*SellerStats, bonus BonusPolicy) []*SellerStats {
	ranked := make([]*SellerStats, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Profit > ranked[j].Profit
	})

	total := len(ranked)
	for i, s := range ranked {
		s.Bonus = bonus.Bonus(i, total, *s)
		s.TopProducts = topProducts(s, TopProductsLimit)
	}
	return ranked
}

// topProducts orders SKUs by quantity sold. Ties follow key order: SKUs that
// are canonical non-negative integers come first in ascending numeric order,
// the rest keep the order in which they were first sold.
func topProducts(s *SellerStats, limit int) []TopProduct {
	out := make([]TopProduct, 0, len(s.skus))
	for _, sku := range s.skus {
		out = append(out, TopProduct{SKU: sku, Quantity: s.ProductsSold[sku]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, iok := integerKey(out[i].SKU)
		nj, jok := integerKey(out[j].SKU)
		if iok && jok {
			return ni < nj
		}
		return iok && !jok
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// integerKey reports whether key is a canonical array index ("0", "17" but
// not "017" or "4294967295").
func integerKey(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}
