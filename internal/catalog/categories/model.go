package categories

import (
	"time"
)

// Category groups products. Image is an optional reference served by an
// external media store.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}
