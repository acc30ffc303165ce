package domain

import (
	"fmt"
	"math"
	"strings"
)

// Catalog query defaults.
const (
	CategoryAll     = "all"
	DefaultMinPrice = 0
	DefaultMaxPrice = 1000

	LatestProductsLimit = 10
	TopSellingLimit     = 5
)

// Product sort keys.
const (
	SortNone      = "none"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// ProductFilter is the storage-neutral catalog query. Only approved products
// are ever listed. PerPage zero means the whole match set.
type ProductFilter struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Search   string
	Sort     string
	Page     int
	PerPage  int
}

// DefaultProductFilter matches every approved product priced 0 to 1000.
func DefaultProductFilter() ProductFilter {
	return ProductFilter{
		Category: CategoryAll,
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
		Sort:     SortNone,
	}
}

// Validate checks the filter's ranges and sort key.
func (f ProductFilter) Validate() error {
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return fmt.Errorf("price bounds must not be negative")
	}
	if f.MinPrice > f.MaxPrice {
		return fmt.Errorf("min price %v exceeds max price %v", f.MinPrice, f.MaxPrice)
	}
	switch f.Sort {
	case "", SortNone, SortPriceLow, SortPriceHigh:
	default:
		return fmt.Errorf("unknown sort %q", f.Sort)
	}
	if f.Page < 0 || f.PerPage < 0 {
		return fmt.Errorf("page and per_page must not be negative")
	}
	if f.Paginated() && f.Page > MaxPage(f.PerPage) {
		return fmt.Errorf("page %d is out of range", f.Page)
	}
	return nil
}

// MaxPage is the largest page number whose offset fits in an int.
func MaxPage(perPage int) int {
	if perPage <= 0 {
		return math.MaxInt
	}
	return math.MaxInt / perPage
}

// AnyCategory reports whether the filter ignores category.
func (f ProductFilter) AnyCategory() bool {
	return f.Category == "" || strings.EqualFold(f.Category, CategoryAll)
}

// Paginated reports whether a page window was requested.
func (f ProductFilter) Paginated() bool {
	return f.PerPage > 0
}

// Offset returns the number of rows skipped before the page.
func (f ProductFilter) Offset() int {
	if !f.Paginated() || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// Matches evaluates the filter against one product. Search is a plain,
// case-insensitive substring match on the name.
func (f ProductFilter) Matches(p *Product) bool {
	if p.Status != ProductStatusApprove {
		return false
	}
	if !f.AnyCategory() && p.Category != f.Category {
		return false
	}
	if p.Price < f.MinPrice || p.Price > f.MaxPrice {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
