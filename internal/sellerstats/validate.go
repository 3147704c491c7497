package sellerstats

// Validate checks that the dataset can be analyzed. Any failure aborts before
// aggregation starts.
func Validate(data *Dataset) error {
	if data == nil {
		return invalidInput("dataset is empty")
	}
	if len(data.Sellers) == 0 || len(data.Products) == 0 || len(data.PurchaseRecords) == 0 {
		return invalidInput("sellers, products and purchase_records must not be empty")
	}
	return nil
}

// CheckReferences verifies that every receipt points at a known seller and
// every line item at a known SKU. It returns the first dangling reference.
func CheckReferences(data *Dataset) error {
	if err := Validate(data); err != nil {
		return err
	}
	sellers := make(map[string]struct{}, len(data.Sellers))
	for _, s := range data.Sellers {
		sellers[s.ID] = struct{}{}
	}
	products := make(map[string]struct{}, len(data.Products))
	for _, p := range data.Products {
		products[p.SKU] = struct{}{}
	}
	for i, record := range data.PurchaseRecords {
		if _, ok := sellers[record.SellerID]; !ok {
			return &LookupError{Kind: LookupSeller, Key: record.SellerID, Record: i, Item: -1}
		}
		for j, item := range record.Items {
			if _, ok := products[item.SKU]; !ok {
				return &LookupError{Kind: LookupProduct, Key: item.SKU, Record: i, Item: j}
			}
		}
	}
	return nil
}
