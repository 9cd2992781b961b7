// Package query filters and sorts catalog snapshots. Everything here is a
// pure function over the slice the repository returned; input is never
// mutated.
package query

import (
	"sort"
	"strings"

	"bilah/internal/models"
)

// Sort keys.
const (
	SortPrice     = "price"
	SortTitle     = "title"
	SortCategory  = "category"
	SortMaker     = "maker"
	SortCreatedAt = "createdAt"
)

// Filter describes one catalog query. All set filters compose by AND.
// Nil range bounds are unbounded on that side; both ranges are inclusive.
type Filter struct {
	Type           string
	Category       string
	Steel          string
	HandleMaterial string
	Attribution    string
	Search         string
	MinPrice       *int
	MaxPrice       *int
	MinBladeLength *float64
	MaxBladeLength *float64
	SortBy         string
	Order          string
}

// Apply returns the matching records sorted by the requested key. The
// default order is price ascending; equal keys keep their stored relative
// order (stable sort).
func Apply(products []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matches(p, f) {
			out = append(out, p)
		}
	}
	sortProducts(out, f.SortBy, f.Order)
	return out
}

func matches(p models.Product, f Filter) bool {
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Steel != "" && p.Steel != f.Steel {
		return false
	}
	if f.HandleMaterial != "" && p.HandleMaterial != f.HandleMaterial {
		return false
	}
	if f.Attribution != "" && !matchesAttribution(p, f.Attribution) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinBladeLength != nil && p.BladeLengthCm < *f.MinBladeLength {
		return false
	}
	if f.MaxBladeLength != nil && p.BladeLengthCm > *f.MaxBladeLength {
		return false
	}
	if f.Search != "" && !matchesSearch(p, f.Search) {
		return false
	}
	return true
}

// matchesAttribution matches when either attribution's email or name equals
// the given value.
func matchesAttribution(p models.Product, who string) bool {
	return p.CreatedBy.Email == who || p.CreatedBy.Name == who ||
		p.UpdatedBy.Email == who || p.UpdatedBy.Name == who
}

func matchesSearch(p models.Product, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

func sortProducts(products []models.Product, key, order string) {
	desc := strings.EqualFold(order, "desc")
	var less func(a, b models.Product) bool
	switch key {
	case SortTitle:
		less = func(a, b models.Product) bool { return a.Title < b.Title }
	case SortCategory:
		less = func(a, b models.Product) bool { return a.Category < b.Category }
	case SortMaker:
		less = func(a, b models.Product) bool { return a.CreatedBy.Name < b.CreatedBy.Name }
	case SortCreatedAt:
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	}
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}
