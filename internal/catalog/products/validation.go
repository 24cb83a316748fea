package products

import (
	"errors"
	"strings"
)

// validate trims the name and brand in place so the persisted values
// match what the unique constraint compares.
func (s *Service) validate(p *Product) error {
	if p.CategoryID <= 0 {
		return errors.New("product category is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if len(p.Name) > 120 {
		return errors.New("product name must be at most 120 characters")
	}
	if len(p.Brand) > 120 {
		return errors.New("product brand must be at most 120 characters")
	}
	return nil
}
