package sellerstats

// index holds the lookup structures for one analysis.
type index struct {
	// accumulators in input order, one per input seller
	stats    []*SellerStats
	sellers  map[string]*SellerStats
	products map[string]Product
}

// buildIndex creates a fresh accumulator per seller. Duplicate seller ids or
// SKUs overwrite earlier entries in the lookup maps; every input seller still
// keeps its own accumulator.
func buildIndex(sellers []Seller, products []Product) *index {
	idx := &index{
		stats:    make([]*SellerStats, 0, len(sellers)),
		sellers:  make(map[string]*SellerStats, len(sellers)),
		products: make(map[string]Product, len(products)),
	}
	for _, s := range sellers {
		acc := &SellerStats{
			ID:           s.ID,
			Name:         s.FirstName + " " + s.LastName,
			ProductsSold: make(map[string]int),
		}
		idx.stats = append(idx.stats, acc)
		idx.sellers[s.ID] = acc
	}
	for _, p := range products {
		idx.products[p.SKU] = p
	}
	return idx
}
