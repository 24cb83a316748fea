package products

// ListFilters narrows the product listing.
type ListFilters struct {
	CategoryID int64
	// Search is a case-insensitive substring match on the product name.
	Search string
	Page   int
	Limit  int
}

// ListEntry is a product annotated with its cheapest known price, when any.
type ListEntry struct {
	Product
	BestPrice *string `json:"best_price"`
}
