// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"talenthub/internal/cache"
	"talenthub/internal/models"

	"gorm.io/gorm"
)

// Handles carries the persistence handles a repository works with. Read is an
// optional replica and Cache may be nil.
type Handles struct {
	DB    *gorm.DB
	Read  *gorm.DB
	Cache *cache.Cache
}

func (h Handles) reader(ctx context.Context) *gorm.DB {
	if h.Read != nil {
		return h.Read.WithContext(ctx)
	}
	return h.DB.WithContext(ctx)
}

func (h Handles) writer(ctx context.Context) *gorm.DB {
	return h.DB.WithContext(ctx)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// notFoundOrInternal translates a gorm lookup error.
func notFoundOrInternal(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// likePattern builds a case-insensitive LIKE pattern, escaping wildcards.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(query))) + "%"
}
