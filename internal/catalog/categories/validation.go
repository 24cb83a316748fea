package categories

import (
	"errors"
	"strings"
)

// validate trims the name in place so the persisted value matches what
// the unique constraint compares.
func (s *Service) validate(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.New("category name is required")
	}
	if len(c.Name) > 80 {
		return errors.New("category name must be at most 80 characters")
	}
	return nil
}
