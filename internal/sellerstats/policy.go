package sellerstats

import (
	"fmt"
	"sort"
	"strings"
)

// RevenuePolicy computes the revenue of a single line item after discount.
type RevenuePolicy interface {
	Revenue(item PurchaseItem) float64
}

// BonusPolicy computes a seller bonus from its zero-based profit rank.
type BonusPolicy interface {
	Bonus(rank, total int, seller SellerStats) float64
}

// RevenueFunc adapts a plain function to RevenuePolicy.
type RevenueFunc func(item PurchaseItem) float64

// Revenue calls f(item).
func (f RevenueFunc) Revenue(item PurchaseItem) float64 { return f(item) }

// BonusFunc adapts a plain function to BonusPolicy.
type BonusFunc func(rank, total int, seller SellerStats) float64

// Bonus calls f(rank, total, seller).
func (f BonusFunc) Bonus(rank, total int, seller SellerStats) float64 { return f(rank, total, seller) }

// SimpleRevenue is sale price times quantity reduced by the discount percentage.
var SimpleRevenue RevenueFunc = func(item PurchaseItem) float64 {
	full := item.SalePrice * float64(item.Quantity)
	return full * (1 - item.Discount/100)
}

// BonusByProfit pays 15% of profit to the leader, 10% to ranks two and three,
// 5% to everyone else except the last place, who gets nothing. The branch
// order matters when there are fewer than four sellers: a single seller is
// the leader and the second of two sellers falls into the 10% tier.
var BonusByProfit BonusFunc = func(rank, total int, seller SellerStats) float64 {
	switch {
	case rank == 0:
		return seller.Profit * 0.15
	case rank <= 2:
		return seller.Profit * 0.10
	case rank != total-1:
		return seller.Profit * 0.05
	default:
		return 0
	}
}

// FlatBonus pays every seller with a positive profit the same share.
func FlatBonus(rate float64) BonusFunc {
	return func(_, _ int, seller SellerStats) float64 {
		if seller.Profit <= 0 {
			return 0
		}
		return seller.Profit * rate
	}
}

const (
	// DefaultBonusPolicy names BonusByProfit in the policy registry.
	DefaultBonusPolicy = "profit-tiers"
	// DefaultRevenuePolicy names SimpleRevenue in the policy registry.
	DefaultRevenuePolicy = "simple"
)

var (
	bonusPolicies = map[string]BonusPolicy{
		DefaultBonusPolicy: BonusByProfit,
		"flat-5":           FlatBonus(0.05),
	}
	revenuePolicies = map[string]RevenuePolicy{
		DefaultRevenuePolicy: SimpleRevenue,
	}
)

// LookupBonusPolicy resolves a bonus policy by name. An empty name selects the default.
func LookupBonusPolicy(name string) (BonusPolicy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultBonusPolicy
	}
	p, ok := bonusPolicies[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown bonus policy %q (available: %s)", ErrInvalidInput, name, strings.Join(names(bonusPolicies), ", "))
	}
	return p, nil
}

// LookupRevenuePolicy resolves a revenue policy by name. An empty name selects the default.
func LookupRevenuePolicy(name string) (RevenuePolicy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultRevenuePolicy
	}
	p, ok := revenuePolicies[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown revenue policy %q (available: %s)", ErrInvalidInput, name, strings.Join(names(revenuePolicies), ", "))
	}
	return p, nil
}

func names[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
