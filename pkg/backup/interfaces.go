package backup

import (
	"context"

	"vkbackup/internal/uploader"
	"vkbackup/pkg/models"
	"vkbackup/pkg/yadisk"
)

// SourceClient reads profile photos from the social network
type SourceClient interface {
	ValidateToken(ctx context.Context) error
	FetchProfilePhotos(ctx context.Context, ownerID string, limit int) ([]models.Photo, error)
}

// DestinationClient stores photos on the cloud disk
type DestinationClient interface {
	uploader.Uploader
	ValidateToken(ctx context.Context) error
	EnsureFolder(ctx context.Context, name string) (yadisk.FolderStatus, error)
}

// ManifestWriter persists the list of uploaded files
type ManifestWriter interface {
	WriteManifest(ownerID string, entries []models.ManifestEntry) (string, error)
}

// ProgressReporter receives state changes and per-item outcomes.
// Implementations must tolerate being called from a single goroutine only.
type ProgressReporter interface {
	StateChanged(state State)
	Started(total int, folder string)
	ItemDone(fileName string, err error, done, total int)
	Finished(result *models.BackupResult)
}
