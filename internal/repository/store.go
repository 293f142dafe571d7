package repository

import (
	"context"

	"talenthub/internal/models"
)

// Store is the storage capability the generic CRUD handlers need.
type Store[T any] interface {
	List(ctx context.Context, limit, offset int) ([]T, error)
	GetByID(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uint) error
}

type gormStore[T any] struct {
	h        Handles
	resource string
	order    string
}

// NewStore returns a Store over the GORM model T. Lists are ordered by order.
func NewStore[T any](h Handles, resource, order string) Store[T] {
	return newGormStore[T](h, resource, order)
}

func newGormStore[T any](h Handles, resource, order string) *gormStore[T] {
	if order == "" {
		order = "id DESC"
	}
	return &gormStore[T]{h: h, resource: resource, order: order}
}

func (s *gormStore[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	limit, offset = clampPage(limit, offset)
	items := make([]T, 0, limit)
	if err := s.h.reader(ctx).Order(s.order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (s *gormStore[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := s.h.reader(ctx).First(&item, id).Error; err != nil {
		return nil, notFoundOrInternal(err, s.resource, id)
	}
	return &item, nil
}

func (s *gormStore[T]) Create(ctx context.Context, item *T) error {
	if err := s.h.writer(ctx).Create(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError(s.resource + " already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (s *gormStore[T]) Delete(ctx context.Context, id uint) error {
	res := s.h.writer(ctx).Delete(new(T), id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(s.resource, id)
	}
	return nil
}
