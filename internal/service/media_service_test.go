package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"talenthub/internal/config"
	"talenthub/internal/models"
	"talenthub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMediaService(t *testing.T) (*MediaService, *testutil.MediaRepoStub[models.Image], *testutil.MediaRepoStub[models.Video]) {
	t.Helper()
	images, videos := testutil.NewImageRepoStub(), testutil.NewVideoRepoStub()
	cfg := &config.Config{
		UploadDir:               t.TempDir(),
		ImageMaxUploadSizeMB:    1,
		VideoMaxUploadSizeMB:    1,
		VideoMaxDurationSeconds: 600,
	}
	svc := NewMediaService(images, videos, cfg)
	svc.now = func() time.Time { return testNow }
	return svc, images, videos
}

func pngUpload(t *testing.T, uploader uint) UploadInput {
	content := testutil.TinyPNG(t, 40, 30)
	return UploadInput{
		UploaderID:  uploader,
		Filename:    "avatar.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	}
}

func TestMediaService_UploadImage(t *testing.T) {
	t.Parallel()
	svc, images, _ := newTestMediaService(t)

	img, err := svc.UploadImage(context.Background(), pngUpload(t, 42))
	require.NoError(t, err)

	wantName := "1772366400000-avatar.png"
	assert.Equal(t, wantName, img.Filename)
	assert.Equal(t, "images/"+wantName, img.Path)
	assert.Equal(t, "/uploads/images/"+wantName, PublicURL(img.Path))
	assert.Equal(t, "avatar.png", img.OriginalName)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, uint(42), img.UploadedByID)

	meta := img.Metadata.Data()
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 30, meta.Height)
	assert.Equal(t, "png", meta.Format)

	_, err = os.Stat(filepath.Join(svc.UploadDir(), "images", wantName))
	require.NoError(t, err)
	assert.Equal(t, 1, images.Len())
}

func TestMediaService_UploadImage_SniffsMissingContentType(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestMediaService(t)

	in := pngUpload(t, 1)
	in.ContentType = "application/octet-stream"
	img, err := svc.UploadImage(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
}

func TestMediaService_UploadImage_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*UploadInput)
		message string
	}{
		{
			name: "wrong mime prefix",
			mutate: func(in *UploadInput) {
				in.ContentType = "text/plain"
			},
			message: "Only image files are allowed",
		},
		{
			name: "unsupported image type",
			mutate: func(in *UploadInput) {
				in.ContentType = "image/tiff"
			},
			message: "Unsupported image type image/tiff",
		},
		{
			name: "declared size over limit",
			mutate: func(in *UploadInput) {
				in.Size = 2 << 20
			},
			message: "File too large (max 1MB)",
		},
		{
			name: "body over limit",
			mutate: func(in *UploadInput) {
				in.Size = 0
				in.Content = bytes.NewReader(bytes.Repeat([]byte{0}, (1<<20)+10))
			},
			message: "File too large (max 1MB)",
		},
		{
			name: "no file",
			mutate: func(in *UploadInput) {
				in.Content = nil
			},
			message: "No file uploaded",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, images, _ := newTestMediaService(t)
			in := pngUpload(t, 1)
			tc.mutate(&in)

			_, err := svc.UploadImage(context.Background(), in)
			appErr := assertValidationError(t, err)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Zero(t, images.Len())

			entries, _ := os.ReadDir(filepath.Join(svc.UploadDir(), "images"))
			assert.Empty(t, entries)
		})
	}
}

func TestMediaService_UploadImage_RemovesFileWhenInsertFails(t *testing.T) {
	t.Parallel()
	svc, images, _ := newTestMediaService(t)
	images.CreateErr = models.NewInternalError(errors.New("db down"))

	_, err := svc.UploadImage(context.Background(), pngUpload(t, 1))
	assertAppError(t, err, models.CodeInternal)

	entries, err := os.ReadDir(filepath.Join(svc.UploadDir(), "images"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMediaService_UploadVideo(t *testing.T) {
	t.Parallel()

	t.Run("stores metadata", func(t *testing.T) {
		t.Parallel()
		svc, _, videos := newTestMediaService(t)
		video, err := svc.UploadVideo(context.Background(), UploadInput{
			UploaderID:  5,
			Filename:    "../../clip.mp4",
			ContentType: "video/mp4",
			Content:     strings.NewReader("not really an mp4"),
			Duration:    12.5,
			Resolution:  "1920x1080",
			Bitrate:     4000,
		})
		require.NoError(t, err)
		assert.Equal(t, "videos/1772366400000-clip.mp4", video.Path)
		assert.Equal(t, 12.5, video.Duration)
		meta := video.Metadata.Data()
		assert.Equal(t, "1920x1080", meta.Resolution)
		assert.Equal(t, "mp4", meta.Format)
		assert.Equal(t, 4000, meta.Bitrate)
		assert.Equal(t, 1, videos.Len())
	})

	t.Run("duration out of range", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestMediaService(t)
		for _, d := range []float64{-1, 601, math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, err := svc.UploadVideo(context.Background(), UploadInput{
				UploaderID:  5,
				Filename:    "clip.mp4",
				ContentType: "video/mp4",
				Content:     strings.NewReader("data"),
				Duration:    d,
			})
			assertValidationError(t, err)
		}
	})

	t.Run("image sent to video endpoint", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestMediaService(t)
		_, err := svc.UploadVideo(context.Background(), pngUpload(t, 5))
		appErr := assertValidationError(t, err)
		assert.Equal(t, "Only video files are allowed", appErr.Message)
	})
}

func TestMediaService_DeleteImage(t *testing.T) {
	t.Parallel()

	t.Run("owner deletes row and file", func(t *testing.T) {
		t.Parallel()
		svc, images, _ := newTestMediaService(t)
		img, err := svc.UploadImage(context.Background(), pngUpload(t, 42))
		require.NoError(t, err)

		require.NoError(t, svc.DeleteImage(context.Background(), img.ID, 42))
		assert.Zero(t, images.Len())
		_, err = os.Stat(filepath.Join(svc.UploadDir(), img.Path))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		t.Parallel()
		svc, images, _ := newTestMediaService(t)
		img, err := svc.UploadImage(context.Background(), pngUpload(t, 42))
		require.NoError(t, err)

		err = svc.DeleteImage(context.Background(), img.ID, 7)
		appErr := assertAppError(t, err, models.CodeForbidden)
		assert.Equal(t, "You can only delete your own images", appErr.Message)
		assert.Equal(t, 1, images.Len())
	})

	t.Run("missing file still deletes row", func(t *testing.T) {
		t.Parallel()
		svc, images, _ := newTestMediaService(t)
		img, err := svc.UploadImage(context.Background(), pngUpload(t, 42))
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(svc.UploadDir(), img.Path)))

		require.NoError(t, svc.DeleteImage(context.Background(), img.ID, 42))
		assert.Zero(t, images.Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newTestMediaService(t)
		err := svc.DeleteImage(context.Background(), 404, 1)
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestMediaService_DeleteVideo_OwnerOnly(t *testing.T) {
	t.Parallel()
	svc, _, videos := newTestMediaService(t)
	video, err := svc.UploadVideo(context.Background(), UploadInput{
		UploaderID:  5,
		Filename:    "clip.webm",
		ContentType: "video/webm",
		Content:     strings.NewReader("webm bytes"),
	})
	require.NoError(t, err)

	assertAppError(t, svc.DeleteVideo(context.Background(), video.ID, 6), models.CodeForbidden)
	require.NoError(t, svc.DeleteVideo(context.Background(), video.ID, 5))
	assert.Zero(t, videos.Len())
}

func TestMediaService_UploadImage_SameNameSameMillisecond(t *testing.T) {
	t.Parallel()
	svc, images, _ := newTestMediaService(t)

	first, err := svc.UploadImage(context.Background(), pngUpload(t, 1))
	require.NoError(t, err)
	second, err := svc.UploadImage(context.Background(), pngUpload(t, 2))
	require.NoError(t, err)

	assert.Equal(t, "1772366400000-avatar.png", first.Filename)
	assert.NotEqual(t, first.Filename, second.Filename)
	assert.True(t, strings.HasPrefix(second.Filename, "1772366400000-"))
	assert.True(t, strings.HasSuffix(second.Filename, "-avatar.png"))
	for _, img := range []*models.Image{first, second} {
		_, err := os.Stat(filepath.Join(svc.UploadDir(), img.Path))
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, images.Len())
}

func TestMediaService_ListImagesByUploader(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestMediaService(t)
	tick := testNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}

	for _, uploader := range []uint{1, 2, 1} {
		_, err := svc.UploadImage(context.Background(), pngUpload(t, uploader))
		require.NoError(t, err)
	}

	mine, err := svc.ListImages(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, img := range mine {
		assert.Equal(t, uint(1), img.UploadedByID)
	}
}
