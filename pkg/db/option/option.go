// Package option holds composable gorm query modifiers shared by the
// repositories.
package option

import (
	"gorm.io/gorm"

	"github.com/smartcondo/condominio/pkg/db/pagination"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

// ApplyPagination seeks past the cursor and fetches one row beyond the
// page size so callers can detect whether more rows exist.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := p.PageSize
		if size <= 0 {
			size = defaultPageSize
		}
		if size > maxPageSize {
			size = maxPageSize
		}

		if p.PageToken != "" {
			if cursor, err := pagination.DecodeCursor(p.PageToken); err == nil && cursor.CreatedAt != "" {
				db = db.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
				)
			}
		}

		return db.Limit(size + 1)
	})
}
