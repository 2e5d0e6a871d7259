package option

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuerySortBy struct {
	Field   string
	OrderBy string
}

type QueryOption func(*gorm.DB) *gorm.DB

func WithSortBy(sort QuerySortBy) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		field := sort.Field
		if field == "" {
			field = "created_at"
		}
		order := sort.OrderBy
		if order == "" {
			order = "ASC"
		}
		return tx.Order(field + " " + order)
	}
}

func WithLimit(limit int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	}
}

// LockingUpdate is a gorm scope adding SELECT ... FOR UPDATE.
// Only valid on dialects that support row locking.
func LockingUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
