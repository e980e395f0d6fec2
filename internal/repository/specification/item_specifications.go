package specification

import (
	"strings"

	"gorm.io/gorm"
)

// ItemSearchQuery matches text, category, or the place neighborhood/type, case-insensitively.
type ItemSearchQuery struct {
	Query string
}

func (s ItemSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	q := strings.TrimSpace(s.Query)
	if q == "" {
		return db
	}
	pattern := "%" + q + "%"
	return db.Where(
		"text ILIKE ? OR category ILIKE ? OR place->>'neighborhood' ILIKE ? OR place->>'type' ILIKE ?",
		pattern, pattern, pattern, pattern,
	)
}

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

type NotDone struct{}

func (s NotDone) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("done = ?", false)
}

type Done struct{}

func (s Done) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("done = ?", true)
}
