package repository

import (
	"context"

	"talenthub/internal/models"
)

// MediaRepository stores upload metadata rows for images or videos.
type MediaRepository[T models.Image | models.Video] interface {
	Store[T]
	ListByUploader(ctx context.Context, uploaderID uint, limit, offset int) ([]T, error)
}

type mediaRepository[T models.Image | models.Video] struct {
	*gormStore[T]
}

// NewImageRepository returns the metadata store for uploaded images.
func NewImageRepository(h Handles) MediaRepository[models.Image] {
	return &mediaRepository[models.Image]{newGormStore[models.Image](h, "Image", "uploaded_at DESC, id DESC")}
}

// NewVideoRepository returns the metadata store for uploaded videos.
func NewVideoRepository(h Handles) MediaRepository[models.Video] {
	return &mediaRepository[models.Video]{newGormStore[models.Video](h, "Video", "uploaded_at DESC, id DESC")}
}

func (r *mediaRepository[T]) ListByUploader(ctx context.Context, uploaderID uint, limit, offset int) ([]T, error) {
	limit, offset = clampPage(limit, offset)
	items := make([]T, 0, limit)
	err := r.h.reader(ctx).
		Where("uploaded_by_id = ?", uploaderID).
		Order(r.order).
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}
