package models

import (
	"time"

	"gorm.io/datatypes"
)

// MediaKind selects the upload policy and storage subdirectory.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MIMEPrefix is the Content-Type prefix every upload of this kind must carry.
func (k MediaKind) MIMEPrefix() string {
	return string(k) + "/"
}

// Dir is the subdirectory of the upload root holding this kind.
func (k MediaKind) Dir() string {
	return string(k) + "s"
}

var allowedMIMETypes = map[MediaKind][]string{
	MediaKindImage: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	MediaKindVideo: {"video/mp4", "video/webm", "video/quicktime"},
}

// AllowsMIME reports whether mime is an accepted type for this kind.
func (k MediaKind) AllowsMIME(mime string) bool {
	for _, m := range allowedMIMETypes[k] {
		if m == mime {
			return true
		}
	}
	return false
}

// ImageMetadata is stored as JSON alongside the image row.
type ImageMetadata struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

// VideoMetadata is stored as JSON alongside the video row.
type VideoMetadata struct {
	Resolution string `json:"resolution,omitempty"`
	Format     string `json:"format,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
}

// Image is the metadata of an uploaded image file.
type Image struct {
	ID           uint                              `gorm:"primaryKey" json:"id"`
	Filename     string                            `gorm:"size:255;not null" json:"filename"`
	OriginalName string                            `gorm:"size:255" json:"original_name"`
	Path         string                            `gorm:"size:512;not null;uniqueIndex" json:"path"`
	MimeType     string                            `gorm:"size:100;not null" json:"mime_type"`
	Size         int64                             `gorm:"not null" json:"size"`
	UploadedByID uint                              `gorm:"not null;index" json:"uploaded_by_id"`
	UploadedBy   *User                             `gorm:"foreignKey:UploadedByID;constraint:OnDelete:CASCADE" json:"-"`
	UploadedAt   time.Time                         `gorm:"not null;index" json:"uploaded_at"`
	Metadata     datatypes.JSONType[ImageMetadata] `json:"metadata"`
	CreatedAt    time.Time                         `json:"created_at"`
	UpdatedAt    time.Time                         `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Image) TableName() string {
	return "images"
}

// CanModify reports whether userID uploaded the image.
func (i *Image) CanModify(userID uint) bool {
	return i.UploadedByID == userID
}

// Video is the metadata of an uploaded video file.
type Video struct {
	ID           uint                              `gorm:"primaryKey" json:"id"`
	Filename     string                            `gorm:"size:255;not null" json:"filename"`
	OriginalName string                            `gorm:"size:255" json:"original_name"`
	Path         string                            `gorm:"size:512;not null;uniqueIndex" json:"path"`
	MimeType     string                            `gorm:"size:100;not null" json:"mime_type"`
	Size         int64                             `gorm:"not null" json:"size"`
	Duration     float64                           `gorm:"not null;default:0" json:"duration"`
	UploadedByID uint                              `gorm:"not null;index" json:"uploaded_by_id"`
	UploadedBy   *User                             `gorm:"foreignKey:UploadedByID;constraint:OnDelete:CASCADE" json:"-"`
	UploadedAt   time.Time                         `gorm:"not null;index" json:"uploaded_at"`
	Metadata     datatypes.JSONType[VideoMetadata] `json:"metadata"`
	CreatedAt    time.Time                         `json:"created_at"`
	UpdatedAt    time.Time                         `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Video) TableName() string {
	return "videos"
}

// CanModify reports whether userID uploaded the video.
func (v *Video) CanModify(userID uint) bool {
	return v.UploadedByID == userID
}
