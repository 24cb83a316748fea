package stores

import (
	"errors"
	"strings"
)

// validate trims the name in place so the persisted value matches what
// the unique constraint compares.
func (s *Service) validate(store *Store) error {
	store.Name = strings.TrimSpace(store.Name)
	if store.Name == "" {
		return errors.New("store name is required")
	}
	if len(store.Name) > 80 {
		return errors.New("store name must be at most 80 characters")
	}
	return nil
}
