package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Image sources.
const (
	SourceUpload = "upload"
	SourceDrive  = "drive"
)

// Image is a categorized medical image owned by one user. The category is the
// ground-truth label and is never sent to the reading client before a
// diagnosis is submitted for it.
type Image struct {
	ID            string `gorm:"primaryKey;column:image_id" json:"image_id"`
	UserID        uint   `gorm:"index" json:"-"`
	Filename      string `json:"filename"`
	Category      string `gorm:"index" json:"category"`
	Source        string `json:"source"`
	DriveFileID   string `json:"drive_file_id,omitempty"`
	DriveFolderID string `json:"drive_folder_id,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	// Data holds the payload as a base64 data URL for uploaded images.
	Data      string    `gorm:"type:text" json:"image_data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Redacted returns a copy safe to hand to a reading client mid-session:
// everything except the ground-truth category.
func (i Image) Redacted() Image {
	i.Category = ""
	return i
}

// DriveFolder is a connected Google Drive folder. Syncing is acknowledged but
// the actual Drive fetch is out of scope; images arrive via upload.
type DriveFolder struct {
	ID            string     `gorm:"primaryKey;column:folder_id" json:"folder_id"`
	UserID        uint       `gorm:"index" json:"-"`
	DriveFolderID string     `json:"drive_folder_id"`
	FolderName    string     `json:"folder_name"`
	Category      string     `json:"category"`
	SyncedAt      *time.Time `json:"synced_at,omitempty"`
	ImageCount    int        `json:"image_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CategoryStat is one row of the per-category image count aggregate.
type CategoryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// NewID builds a prefixed public identifier like "img_3f2a9c81d04e".
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%.6x", prefix, uuid.New())
}
