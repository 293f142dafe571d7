package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"io/fs"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"talenthub/internal/config"
	"talenthub/internal/middleware"
	"talenthub/internal/models"
	"talenthub/internal/observability"
	"talenthub/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"gorm.io/datatypes"
)

const (
	DefaultUploadDir            = "./uploads"
	DefaultImageMaxUploadSizeMB = 5
	DefaultVideoMaxUploadSizeMB = 100
	DefaultVideoMaxDuration     = 3600

	// PublicUploadPrefix is where stored files are served from.
	PublicUploadPrefix = "/uploads"

	// renameAttempts bounds the suffixed names tried after a disk name clash.
	renameAttempts = 3
)

// UploadInput is one multipart file plus the optional metadata form fields.
type UploadInput struct {
	UploaderID  uint
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader

	Width      int
	Height     int
	Format     string
	Resolution string
	Bitrate    int
	Duration   float64
}

// MediaService stores uploaded images and videos on disk and their metadata
// in the database.
type MediaService struct {
	images      repository.MediaRepository[models.Image]
	videos      repository.MediaRepository[models.Video]
	uploadDir   string
	maxBytes    map[models.MediaKind]int64
	maxDuration float64
	now         func() time.Time
}

func NewMediaService(images repository.MediaRepository[models.Image], videos repository.MediaRepository[models.Video], cfg *config.Config) *MediaService {
	uploadDir := DefaultUploadDir
	imageMB, videoMB := DefaultImageMaxUploadSizeMB, DefaultVideoMaxUploadSizeMB
	maxDuration := DefaultVideoMaxDuration

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			imageMB = cfg.ImageMaxUploadSizeMB
		}
		if cfg.VideoMaxUploadSizeMB > 0 {
			videoMB = cfg.VideoMaxUploadSizeMB
		}
		if cfg.VideoMaxDurationSeconds > 0 {
			maxDuration = cfg.VideoMaxDurationSeconds
		}
	}

	return &MediaService{
		images:    images,
		videos:    videos,
		uploadDir: uploadDir,
		maxBytes: map[models.MediaKind]int64{
			models.MediaKindImage: int64(imageMB) << 20,
			models.MediaKindVideo: int64(videoMB) << 20,
		},
		maxDuration: float64(maxDuration),
		now:         time.Now,
	}
}

// UploadDir is the root directory files are written under.
func (s *MediaService) UploadDir() string {
	return s.uploadDir
}

// PublicURL maps a stored relative path to its served URL.
func PublicURL(storedPath string) string {
	return path.Join(PublicUploadPrefix, filepath.ToSlash(storedPath))
}

// storedFile is a file written under uploadDir.
type storedFile struct {
	relPath  string
	absPath  string
	name     string
	mimeType string
	size     int64
}

// store validates the upload against kind and writes it to disk.
func (s *MediaService) store(kind models.MediaKind, in UploadInput) (*storedFile, error) {
	if in.Content == nil {
		return nil, models.NewValidationError("No file uploaded")
	}
	maxBytes := s.maxBytes[kind]
	if in.Size > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes>>20))
	}

	br := bufio.NewReaderSize(in.Content, 512)
	mimeType := normalizeContentType(in.ContentType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		head, _ := br.Peek(512)
		mimeType = normalizeContentType(http.DetectContentType(head))
	}
	if !strings.HasPrefix(mimeType, kind.MIMEPrefix()) {
		return nil, models.NewValidationError(fmt.Sprintf("Only %s files are allowed", kind))
	}
	if !kind.AllowsMIME(mimeType) {
		return nil, models.NewValidationError(fmt.Sprintf("Unsupported %s type %s", kind, mimeType))
	}

	base := filepath.Base(strings.ReplaceAll(in.Filename, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	dir := filepath.Join(s.uploadDir, kind.Dir())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, models.NewInternalError(err)
	}

	stamp := s.now().UnixMilli()
	name := fmt.Sprintf("%d-%s", stamp, base)
	abs := filepath.Join(dir, name)
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	for attempt := 0; errors.Is(err, fs.ErrExist) && attempt < renameAttempts; attempt++ {
		name = fmt.Sprintf("%d-%s-%s", stamp, uuid.NewString()[:8], base)
		abs = filepath.Join(dir, name)
		f, err = os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	rel := filepath.Join(kind.Dir(), name)

	written, copyErr := io.Copy(f, io.LimitReader(br, maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		removeFile(abs)
		return nil, models.NewInternalError(copyErr)
	case closeErr != nil:
		removeFile(abs)
		return nil, models.NewInternalError(closeErr)
	case written > maxBytes:
		removeFile(abs)
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes>>20))
	case written == 0:
		removeFile(abs)
		return nil, models.NewValidationError("Uploaded file is empty")
	}

	return &storedFile{relPath: rel, absPath: abs, name: name, mimeType: mimeType, size: written}, nil
}

func normalizeContentType(raw string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(mediaType)
}

func removeFile(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		middleware.Logger.Warn("failed to remove upload", slog.String("path", p), slog.String("error", err.Error()))
	}
}

// imageMetadata decodes dimensions from the stored file, falling back to the
// client-provided form values.
func imageMetadata(absPath, mimeType string, in UploadInput) models.ImageMetadata {
	meta := models.ImageMetadata{Width: in.Width, Height: in.Height, Format: in.Format}
	if f, err := os.Open(absPath); err == nil {
		defer func() { _ = f.Close() }()
		if cfg, format, err := image.DecodeConfig(f); err == nil {
			meta.Width, meta.Height, meta.Format = cfg.Width, cfg.Height, format
		}
	}
	if meta.Format == "" {
		meta.Format = strings.TrimPrefix(mimeType, "image/")
	}
	return meta
}

// UploadImage stores an image and its metadata row.
func (s *MediaService) UploadImage(ctx context.Context, in UploadInput) (*models.Image, error) {
	ctx, span := observability.StartSpan(ctx, "media", "upload_image", attribute.Int64("size", in.Size))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	stored, err := s.store(models.MediaKindImage, in)
	if err != nil {
		observability.RecordUpload(string(models.MediaKindImage), "rejected", 0)
		return nil, err
	}

	img := &models.Image{
		Filename:     stored.name,
		OriginalName: in.Filename,
		Path:         filepath.ToSlash(stored.relPath),
		MimeType:     stored.mimeType,
		Size:         stored.size,
		UploadedByID: in.UploaderID,
		UploadedAt:   s.now().UTC(),
		Metadata:     datatypes.NewJSONType(imageMetadata(stored.absPath, stored.mimeType, in)),
	}
	if err = s.images.Create(ctx, img); err != nil {
		removeFile(stored.absPath)
		observability.RecordUpload(string(models.MediaKindImage), "failed", 0)
		return nil, err
	}
	observability.RecordUpload(string(models.MediaKindImage), "accepted", stored.size)
	return img, nil
}

// UploadVideo stores a video and its metadata row. Duration comes from the
// form and must lie within the configured bounds.
func (s *MediaService) UploadVideo(ctx context.Context, in UploadInput) (*models.Video, error) {
	ctx, span := observability.StartSpan(ctx, "media", "upload_video", attribute.Int64("size", in.Size))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) || in.Duration < 0 || in.Duration > s.maxDuration {
		err = models.NewValidationError(fmt.Sprintf("duration must be between 0 and %.0f seconds", s.maxDuration))
		observability.RecordUpload(string(models.MediaKindVideo), "rejected", 0)
		return nil, err
	}

	stored, err := s.store(models.MediaKindVideo, in)
	if err != nil {
		observability.RecordUpload(string(models.MediaKindVideo), "rejected", 0)
		return nil, err
	}

	format := in.Format
	if format == "" {
		format = strings.TrimPrefix(stored.mimeType, "video/")
	}
	video := &models.Video{
		Filename:     stored.name,
		OriginalName: in.Filename,
		Path:         filepath.ToSlash(stored.relPath),
		MimeType:     stored.mimeType,
		Size:         stored.size,
		Duration:     in.Duration,
		UploadedByID: in.UploaderID,
		UploadedAt:   s.now().UTC(),
		Metadata: datatypes.NewJSONType(models.VideoMetadata{
			Resolution: in.Resolution,
			Format:     format,
			Bitrate:    in.Bitrate,
		}),
	}
	if err = s.videos.Create(ctx, video); err != nil {
		removeFile(stored.absPath)
		observability.RecordUpload(string(models.MediaKindVideo), "failed", 0)
		return nil, err
	}
	observability.RecordUpload(string(models.MediaKindVideo), "accepted", stored.size)
	return video, nil
}

// ListImages returns the caller's images, newest first.
func (s *MediaService) ListImages(ctx context.Context, uploaderID uint, limit, offset int) ([]models.Image, error) {
	return s.images.ListByUploader(ctx, uploaderID, limit, offset)
}

func (s *MediaService) ListVideos(ctx context.Context, limit, offset int) ([]models.Video, error) {
	return s.videos.List(ctx, limit, offset)
}

// DeleteImage removes an image the caller uploaded, then its file.
func (s *MediaService) DeleteImage(ctx context.Context, id, userID uint) error {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !img.CanModify(userID) {
		return models.NewForbiddenError("You can only delete your own images")
	}
	if err := s.images.Delete(ctx, id); err != nil {
		return err
	}
	s.removeStored(ctx, img.Path)
	return nil
}

// DeleteVideo removes a video the caller uploaded, then its file.
func (s *MediaService) DeleteVideo(ctx context.Context, id, userID uint) error {
	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !video.CanModify(userID) {
		return models.NewForbiddenError("You can only delete your own videos")
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return err
	}
	s.removeStored(ctx, video.Path)
	return nil
}

// removeStored deletes a stored file. A file already gone is logged only.
func (s *MediaService) removeStored(ctx context.Context, relPath string) {
	abs := filepath.Join(s.uploadDir, filepath.FromSlash(relPath))
	if err := os.Remove(abs); err != nil {
		middleware.Logger.WarnContext(ctx, "stored file not removed",
			slog.String("path", abs), slog.String("error", err.Error()))
	}
}
