package products

import (
	"time"
)

// Product represents a catalog product. (CategoryID, Name, Brand) is unique.
type Product struct {
	ID           int64     `json:"id"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}
