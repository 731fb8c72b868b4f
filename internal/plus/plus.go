// Package plus tracks the paid-tier entitlement. Purchases themselves happen
// in the platform store; this only records which products are owned and
// answers the gating question.
package plus

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Product identifiers for the paid tier.
const (
	ProductLifetime = "plus_lifetime"
	ProductYearly   = "plus_yearly"
	ProductMonthly  = "plus_monthly"
)

// Products lists every identifier that unlocks Plus.
var Products = []string{ProductLifetime, ProductYearly, ProductMonthly}

// Store persists owned products as JSON under the base directory.
type Store struct {
	path   string
	bought map[string]bool
}

// Open loads the entitlement store from baseDir/plus.json.
// A missing file means nothing is owned.
func Open(baseDir string) (*Store, error) {
	s := &Store{
		path:   filepath.Join(baseDir, "plus.json"),
		bought: make(map[string]bool),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.bought); err != nil {
		return nil, err
	}
	return s, nil
}

// Bought reports whether the given product is owned.
func (s *Store) Bought(product string) bool {
	return s.bought[product]
}

// SetBought records ownership of a product and persists the store.
// Subscriptions are mutually exclusive: owning yearly clears monthly and
// vice versa, matching the subscription-upgrade flow.
func (s *Store) SetBought(product string, value bool) error {
	s.bought[product] = value
	if value {
		switch product {
		case ProductYearly:
			s.bought[ProductMonthly] = false
		case ProductMonthly:
			s.bought[ProductYearly] = false
		}
	}

	data, err := json.MarshalIndent(s.bought, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, append(data, '\n'), 0600)
}

// IsPlus reports whether any Plus product is owned.
func (s *Store) IsPlus() bool {
	for _, product := range Products {
		if s.bought[product] {
			return true
		}
	}
	return false
}

// Entitlement is the gating check consumed by the export path.
type Entitlement interface {
	IsPlus() bool
}
