package stores

import (
	"time"
)

// Store represents a participating store.
type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
