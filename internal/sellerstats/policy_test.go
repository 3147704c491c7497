package sellerstats

import (
	"errors"
	"strings"
	"testing"
)

func TestBonusByProfitTiers(t *testing.T) {
	seller := SellerStats{Profit: 1000}
	cases := []struct {
		rank, total int
		want        float64
	}{
		{0, 1, 150},
		{0, 2, 150},
		{1, 2, 100},
		{2, 3, 100},
		{3, 5, 50},
		{4, 5, 0},
		{9, 10, 0},
	}
	for _, tc := range cases {
		if got := BonusByProfit(tc.rank, tc.total, seller); got != tc.want {
			t.Fatalf("rank %d of %d: expected %v, got %v", tc.rank, tc.total, tc.want, got)
		}
	}
}

func TestSimpleRevenue(t *testing.T) {
	got := SimpleRevenue(PurchaseItem{SalePrice: 200, Quantity: 3, Discount: 25})
	if got != 450 {
		t.Fatalf("expected 450, got %v", got)
	}
}

func TestFlatBonusSkipsLosses(t *testing.T) {
	policy := FlatBonus(0.05)
	if got := policy(0, 3, SellerStats{Profit: -10}); got != 0 {
		t.Fatalf("expected no bonus for a loss, got %v", got)
	}
	if got := policy(2, 3, SellerStats{Profit: 200}); got != 10 {
		t.Fatalf("expected 10, got %v", got)
	}
}

func TestLookupPolicies(t *testing.T) {
	if _, err := LookupBonusPolicy(""); err != nil {
		t.Fatalf("default bonus policy: %v", err)
	}
	if _, err := LookupBonusPolicy(" Flat-5 "); err != nil {
		t.Fatalf("flat-5 bonus policy: %v", err)
	}
	if _, err := LookupRevenuePolicy("simple"); err != nil {
		t.Fatalf("simple revenue policy: %v", err)
	}
	if _, err := LookupBonusPolicy("lottery"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := LookupRevenuePolicy("gross"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTopProductsTieKeepsFirstSeenOrder(t *testing.T) {
	s := &SellerStats{ProductsSold: map[string]int{}}
	for i, sku := range []string{"b", "a", "c", "b", "d"} {
		s.addSold(sku, 1+i%2)
	}
	// b=1+2=3, a=2, c=1, d=1
	got := topProducts(s, 3)
	want := []TopProduct{{"b", 3}, {"a", 2}, {"c", 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestTopProductsTieOrdersIntegerSKUsFirst(t *testing.T) {
	s := &SellerStats{ProductsSold: map[string]int{}}
	for _, sku := range []string{"b", "10", "2", "007", "a", "4294967295", "0"} {
		s.addSold(sku, 1)
	}
	s.addSold("a", 1)

	got := topProducts(s, TopProductsLimit)
	order := make([]string, 0, len(got))
	for _, p := range got {
		order = append(order, p.SKU)
	}
	want := []string{"a", "0", "2", "10", "b", "007", "4294967295"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, order)
	}
}

func TestTopProductsCappedAtLimit(t *testing.T) {
	s := &SellerStats{ProductsSold: map[string]int{}}
	for i := 0; i < 15; i++ {
		s.addSold(string(rune('a'+i)), i+1)
	}
	got := topProducts(s, TopProductsLimit)
	if len(got) != TopProductsLimit {
		t.Fatalf("expected %d entries, got %d", TopProductsLimit, len(got))
	}
	if got[0].SKU != "o" || got[0].Quantity != 15 {
		t.Fatalf("unexpected leader %+v", got[0])
	}
}

func TestRound2(t *testing.T) {
	a, b := 0.1, 0.2
	cases := []struct{ in, want float64 }{
		{12.345, 12.35},
		{-12.345, -12.35},
		{80, 80},
		{a + b, 0.3},
		{1.005, 1},
		{2.675, 2.67},
		{8.345, 8.35},
		{1.045, 1.04},
		{0.125, 0.13},
		{-0.125, -0.13},
	}
	for _, tc := range cases {
		in, want := tc.in, tc.want
		if got := round2(in); got != want {
			t.Fatalf("round2(%v): expected %v, got %v", in, want, got)
		}
	}
}
