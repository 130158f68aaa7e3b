package model

// InventorySummary aggregates products per category.
type InventorySummary struct {
	CategoryName  string  `json:"categoryName"`
	TotalProducts int64   `json:"totalProducts"`
	StockValue    float64 `json:"stockValue"`
}
