package sellerstats

// aggregate folds every purchase record into the seller accumulators. Seller
// revenue is the receipt total; profit is derived from the revenue policy per
// line item minus the product cost.
func aggregate(records []PurchaseRecord, idx *index, revenue RevenuePolicy) error {
	for i, record := range records {
		acc, ok := idx.sellers[record.SellerID]
		if !ok {
			return &LookupError{Kind: LookupSeller, Key: record.SellerID, Record: i, Item: -1}
		}
		acc.SalesCount++
		acc.Revenue += record.TotalAmount

		for j, item := range record.Items {
			product, ok := idx.products[item.SKU]
			if !ok {
				return &LookupError{Kind: LookupProduct, Key: item.SKU, Record: i, Item: j}
			}
			cost := product.PurchasePrice * float64(item.Quantity)
			acc.Profit += revenue.Revenue(item) - cost
			acc.addSold(item.SKU, item.Quantity)
		}
	}
	return nil
}

func (s *SellerStats) addSold(sku string, qty int) {
	if _, seen := s.ProductsSold[sku]; !seen {
		s.skus = append(s.skus, sku)
	}
	s.ProductsSold[sku] += qty
}
