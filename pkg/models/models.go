package models

import (
	"strconv"
	"strings"
	"time"
)

// FileExtension is appended to every generated filename
const FileExtension = ".jpg"

// SizeVariant is one rendition of a photo
type SizeVariant struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
	Type   string `json:"type"`
}

// Area returns width x height
func (s SizeVariant) Area() int64 {
	return int64(s.Width) * int64(s.Height)
}

// Photo is a profile photo as fetched from the source API
type Photo struct {
	ID      int64
	OwnerID int64
	Date    time.Time
	Likes   int
	Sizes   []SizeVariant
}

// FileName is the derived destination name of a photo.
// Zero values of Date, PhotoID and Suffix mean the qualifier is absent.
type FileName struct {
	Likes   int
	Date    string
	PhotoID int64
	Suffix  int
}

// Base returns the name without extension
func (f FileName) Base() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(f.Likes))
	if f.Date != "" {
		b.WriteString("_")
		b.WriteString(f.Date)
	}
	if f.PhotoID != 0 {
		b.WriteString("_")
		b.WriteString(strconv.FormatInt(f.PhotoID, 10))
	}
	if f.Suffix != 0 {
		b.WriteString("_")
		b.WriteString(strconv.Itoa(f.Suffix))
	}
	return b.String()
}

func (f FileName) String() string {
	return f.Base() + FileExtension
}

// ManifestEntry records one uploaded photo
type ManifestEntry struct {
	FileName string `json:"file_name"`
	Size     string `json:"size"`
}

// ItemFailure describes a photo that could not be uploaded
type ItemFailure struct {
	PhotoID  int64  `json:"photo_id"`
	FileName string `json:"file_name,omitempty"`
	Reason   string `json:"reason"`
	Kind     string `json:"kind"`
}

// BackupResult summarises one backup run
type BackupResult struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message,omitempty"`
	RunID          string          `json:"run_id"`
	TotalPhotos    int             `json:"total_photos"`
	UploadedPhotos int             `json:"uploaded_photos"`
	FolderName     string          `json:"folder_name,omitempty"`
	ManifestPath   string          `json:"manifest_path,omitempty"`
	Entries        []ManifestEntry `json:"photos_info,omitempty"`
	Failures       []ItemFailure   `json:"failures,omitempty"`
	Duration       time.Duration   `json:"duration"`
}

// FailedPhotos returns how many fetched photos were not uploaded
func (r *BackupResult) FailedPhotos() int {
	return r.TotalPhotos - r.UploadedPhotos
}
