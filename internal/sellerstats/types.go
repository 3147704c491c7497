package sellerstats

// Seller is a sales person whose receipts are ranked by profit.
type Seller struct {
	ID        string `json:"id" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Product is a catalog entry. PurchasePrice is the unit cost used to derive profit.
type Product struct {
	SKU           string  `json:"sku" validate:"required"`
	Name          string  `json:"name,omitempty"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
}

// PurchaseItem is a single line of a receipt. Discount is a percentage.
type PurchaseItem struct {
	SKU       string  `json:"sku" validate:"required"`
	SalePrice float64 `json:"sale_price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"gte=0"`
	Discount  float64 `json:"discount" validate:"gte=0,lte=100"`
}

// PurchaseRecord is a receipt belonging to one seller.
type PurchaseRecord struct {
	ReceiptID   string         `json:"receipt_id,omitempty"`
	SellerID    string         `json:"seller_id" validate:"required"`
	TotalAmount float64        `json:"total_amount"`
	Items       []PurchaseItem `json:"items" validate:"dive"`
}

// Dataset bundles the three input collections of an analysis.
type Dataset struct {
	Sellers         []Seller         `json:"sellers" validate:"dive"`
	Products        []Product        `json:"products" validate:"dive"`
	PurchaseRecords []PurchaseRecord `json:"purchase_records" validate:"dive"`
}

// TopProduct is a SKU with the quantity a seller sold of it.
type TopProduct struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// SellerStats is the running total for one seller. It is owned by a single
// Analyze call and handed to the bonus policy read-only once ranking starts.
type SellerStats struct {
	ID           string
	Name         string
	Revenue      float64
	Profit       float64
	SalesCount   int
	ProductsSold map[string]int
	Bonus        float64
	TopProducts  []TopProduct

	// first-seen order of ProductsSold keys
	skus []string
}

// SellerReport is the final, rounded output record for a seller.
type SellerReport struct {
	SellerID    string       `json:"seller_id"`
	Name        string       `json:"name"`
	Revenue     float64      `json:"revenue"`
	Profit      float64      `json:"profit"`
	SalesCount  int          `json:"sales_count"`
	TopProducts []TopProduct `json:"top_products"`
	Bonus       float64      `json:"bonus"`
}
