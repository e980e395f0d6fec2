package venue

import (
	"strings"
)

// Category is the fixed set of list buckets an item can live in.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryNightlife     Category = "Nightlife"
	CategoryActivity      Category = "Activity"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategoryTravel        Category = "Travel"
	CategoryOther         Category = "Other"
)

// Categories in display order.
var Categories = []Category{
	CategoryFood,
	CategoryNightlife,
	CategoryActivity,
	CategoryEntertainment,
	CategoryShopping,
	CategoryTravel,
	CategoryOther,
}

// NormalizeCategory maps free-form input onto a known category, case-insensitively.
// Anything unknown lands in Other.
func NormalizeCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// IsKnownCategory reports whether raw names one of Categories exactly (ignoring case).
func IsKnownCategory(raw string) bool {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return true
		}
	}
	return false
}

// PlaceInfo is the structured venue metadata attached to items and recommendations.
// Only Name and Type are expected; every other field may be empty.
type PlaceInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Address      string   `json:"address,omitempty"`
	Description  string   `json:"description,omitempty"`
	KnownFor     string   `json:"knownFor,omitempty"`
	PriceRange   string   `json:"priceRange,omitempty"`
	Tips         string   `json:"tips,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"reviewCount,omitempty"`
}

// PriceTier renders a provider price level (0..3) as "$".."$$$$".
// Negative levels mean the provider did not report one.
func PriceTier(level int) string {
	if level < 0 {
		return ""
	}
	if level > 3 {
		level = 3
	}
	return strings.Repeat("$", level+1)
}
