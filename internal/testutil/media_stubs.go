// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sort"
	"sync"

	"talenthub/internal/models"
	"talenthub/internal/repository"
)

// MediaRepoStub is an in-memory repository.MediaRepository for tests.
type MediaRepoStub[T models.Image | models.Video] struct {
	mu     sync.Mutex
	items  map[uint]*T
	nextID uint
	setID  func(*T, uint)
	owner  func(*T) uint

	// CreateErr, when set, is returned by Create without storing anything.
	CreateErr error
}

var (
	_ repository.MediaRepository[models.Image] = (*MediaRepoStub[models.Image])(nil)
	_ repository.MediaRepository[models.Video] = (*MediaRepoStub[models.Video])(nil)
)

// NewImageRepoStub creates an in-memory image repository stub.
func NewImageRepoStub() *MediaRepoStub[models.Image] {
	return &MediaRepoStub[models.Image]{
		items:  make(map[uint]*models.Image),
		nextID: 1,
		setID:  func(i *models.Image, id uint) { i.ID = id },
		owner:  func(i *models.Image) uint { return i.UploadedByID },
	}
}

// NewVideoRepoStub creates an in-memory video repository stub.
func NewVideoRepoStub() *MediaRepoStub[models.Video] {
	return &MediaRepoStub[models.Video]{
		items:  make(map[uint]*models.Video),
		nextID: 1,
		setID:  func(v *models.Video, id uint) { v.ID = id },
		owner:  func(v *models.Video) uint { return v.UploadedByID },
	}
}

func (s *MediaRepoStub[T]) Create(_ context.Context, item *T) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.setID(item, id)
	s.items[id] = item
	return nil
}

func (s *MediaRepoStub[T]) GetByID(_ context.Context, id uint) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("Media", id)
	}
	return item, nil
}

func (s *MediaRepoStub[T]) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return models.NewNotFoundError("Media", id)
	}
	delete(s.items, id)
	return nil
}

// List returns items in descending id order.
func (s *MediaRepoStub[T]) List(_ context.Context, limit, offset int) ([]T, error) {
	return s.page(func(*T) bool { return true }, limit, offset), nil
}

func (s *MediaRepoStub[T]) ListByUploader(_ context.Context, uploaderID uint, limit, offset int) ([]T, error) {
	return s.page(func(item *T) bool { return s.owner(item) == uploaderID }, limit, offset), nil
}

// Len reports how many items are stored.
func (s *MediaRepoStub[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MediaRepoStub[T]) page(keep func(*T) bool, limit, offset int) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint, 0, len(s.items))
	for id, item := range s.items {
		if keep(item) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	out := make([]T, 0, len(ids))
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *s.items[id])
	}
	return out
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
