package backup

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	"vkbackup/internal/uploader"
	"vkbackup/pkg/config"
	apperrors "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
	"vkbackup/pkg/models"
	"vkbackup/pkg/photos"
	"vkbackup/pkg/ratelimit"
	"vkbackup/pkg/storage"
	"vkbackup/pkg/vk"
	"vkbackup/pkg/yadisk"
)

// DefaultFolderPrefix prefixes every destination folder name
const DefaultFolderPrefix = "VK_Photos"

// Orchestrator runs one profile backup from validation to manifest
type Orchestrator struct {
	source       SourceClient
	destination  DestinationClient
	manifest     ManifestWriter
	pacer        ratelimit.Limiter
	reporter     ProgressReporter
	folderPrefix string
	location     *time.Location
	now          func() time.Time
	newRunID     func() string
	logger       logger.Logger
	state        State
}

// New creates an orchestrator over the given collaborators
func New(source SourceClient, destination DestinationClient, manifest ManifestWriter, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{
		source:       source,
		destination:  destination,
		manifest:     manifest,
		reporter:     nopReporter{},
		folderPrefix: DefaultFolderPrefix,
		location:     time.Local,
		now:          time.Now,
		newRunID:     uuid.NewString,
		logger:       log.WithField("component", "backup"),
	}
}

// NewFromConfig wires the VK client, the Yandex.Disk client and the
// manifest store from cfg
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Orchestrator, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	store, err := storage.NewManager(cfg.Backup.ManifestDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest store: %w", err)
	}

	o := New(vk.NewClientFromConfig(cfg, log), yadisk.NewClientFromConfig(cfg, log), store, log)
	o.SetPacer(ratelimit.NewFixedInterval(cfg.Backup.PacingDelay))
	if cfg.Backup.FolderPrefix != "" {
		o.SetFolderPrefix(cfg.Backup.FolderPrefix)
	}

	logger.LogComponentStart(log, "backup", map[string]interface{}{
		"folder_prefix": o.folderPrefix,
		"manifest_dir":  store.GetOutputDir(),
		"pacing_delay":  cfg.Backup.PacingDelay,
		"retry":         cfg.Retry.Enabled,
	})
	return o, nil
}

// SetPacer sets the limiter waited on before every upload attempt
func (o *Orchestrator) SetPacer(p ratelimit.Limiter) {
	o.pacer = p
}

// SetReporter sets the progress reporter; nil disables reporting
func (o *Orchestrator) SetReporter(r ProgressReporter) {
	if r == nil {
		r = nopReporter{}
	}
	o.reporter = r
}

// SetFolderPrefix overrides DefaultFolderPrefix
func (o *Orchestrator) SetFolderPrefix(prefix string) {
	o.folderPrefix = prefix
}

// SetClock overrides the clock and the zone used for dates in names
func (o *Orchestrator) SetClock(now func() time.Time, loc *time.Location) {
	if now != nil {
		o.now = now
	}
	if loc != nil {
		o.location = loc
	}
}

// State returns the step the last run reached
func (o *Orchestrator) State() State {
	return o.state
}

// FolderName returns the destination folder for ownerID on the day of at
func FolderName(prefix, ownerID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, ownerID, at.Format(photos.DateLayout))
}

// Run backs up up to count profile photos of ownerID. It always returns a
// result; Success is false when setup failed, nothing was found or no
// upload was accepted.
func (o *Orchestrator) Run(ctx context.Context, ownerID string, count int) *models.BackupResult {
	started := o.now()
	result := &models.BackupResult{RunID: o.newRunID()}
	log := o.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"owner_id": ownerID,
	})

	defer func() {
		result.Duration = o.now().Sub(started)
		o.reporter.Finished(result)
	}()

	log.InfoWithFields("Starting backup", map[string]interface{}{"count": count})

	o.transition(log, StateValidatingCredentials)
	if err := o.source.ValidateToken(ctx); err != nil {
		return o.fail(log, result, "VK token validation failed", err)
	}
	if err := o.destination.ValidateToken(ctx); err != nil {
		return o.fail(log, result, "Yandex.Disk token validation failed", err)
	}

	o.transition(log, StateFetchingMetadata)
	list, err := o.source.FetchProfilePhotos(ctx, ownerID, count)
	if err != nil {
		return o.fail(log, result, "failed to fetch profile photos", err)
	}
	if len(list) == 0 {
		o.transition(log, StateNoPhotosFound)
		result.Message = fmt.Sprintf("no accessible profile photos for user %s", ownerID)
		log.Warn("No photos found")
		return result
	}

	sortByArea(list)
	result.TotalPhotos = len(list)

	o.transition(log, StateProvisioningFolder)
	folder := FolderName(o.folderPrefix, ownerID, started.In(o.location))
	status, err := o.destination.EnsureFolder(ctx, folder)
	if err != nil {
		return o.fail(log, result, "failed to create destination folder", err)
	}
	result.FolderName = folder
	log.InfoWithFields("Folder ready", map[string]interface{}{
		"folder": folder,
		"status": status.String(),
	})

	o.transition(log, StateUploadingItems)
	jobs := o.plan(list, folder)
	o.reporter.Started(len(jobs), folder)

	runner := uploader.NewRunner(o.destination, o.pacer, log)
	results := runner.Run(ctx, jobs, func(res uploader.Result, done, total int) {
		o.reporter.ItemDone(res.Job.FileName, res.Error, done, total)
		logger.LogBackupProgress(log, ownerID, done, total)
	})

	o.transition(log, StateFinalizing)
	o.aggregate(result, jobs, results, ctx.Err())

	if result.UploadedPhotos == 0 {
		result.Message = "no photos were uploaded"
		o.transition(log, StateFailed)
		log.ErrorWithFields("Backup failed", map[string]interface{}{
			"total_photos": result.TotalPhotos,
		})
		return result
	}

	manifestPath, err := o.manifest.WriteManifest(ownerID, result.Entries)
	if err != nil {
		return o.fail(log, result, "failed to write manifest", err)
	}
	result.ManifestPath = manifestPath
	result.Success = true
	result.Message = fmt.Sprintf("uploaded %d of %d photos", result.UploadedPhotos, result.TotalPhotos)

	o.transition(log, StateDone)
	log.InfoWithFields("Backup completed", map[string]interface{}{
		"uploaded": result.UploadedPhotos,
		"total":    result.TotalPhotos,
		"folder":   folder,
		"manifest": manifestPath,
	})
	return result
}

// plan selects a size and a unique name for every photo, in order.
// A photo without size data becomes a job carrying the selection error.
func (o *Orchestrator) plan(list []models.Photo, folder string) []uploader.Job {
	allocator := photos.NewAllocator(list, o.location)
	used := photos.NameSet{}
	jobs := make([]uploader.Job, 0, len(list))

	for _, p := range list {
		job := uploader.Job{Photo: p}
		size, err := photos.Largest(p.Sizes)
		if err != nil {
			job.Err = err
			jobs = append(jobs, job)
			continue
		}
		job.Size = size
		job.FileName = allocator.Allocate(p, used).String()
		job.Path = path.Join(folder, job.FileName)
		jobs = append(jobs, job)
	}
	return jobs
}

// aggregate folds per-item results into result. Jobs never attempted
// because the run was cancelled count as failures.
func (o *Orchestrator) aggregate(result *models.BackupResult, jobs []uploader.Job, results []uploader.Result, cause error) {
	if cause == nil {
		cause = context.Canceled
	}
	for _, res := range results {
		if res.Success {
			result.UploadedPhotos++
			result.Entries = append(result.Entries, models.ManifestEntry{
				FileName: res.Job.FileName,
				Size:     res.Job.Size.Type,
			})
			continue
		}
		result.Failures = append(result.Failures, failureOf(res.Job, res.Error))
	}
	for _, job := range jobs[len(results):] {
		result.Failures = append(result.Failures, failureOf(job, cause))
	}
}

func failureOf(job uploader.Job, err error) models.ItemFailure {
	return models.ItemFailure{
		PhotoID:  job.Photo.ID,
		FileName: job.FileName,
		Reason:   err.Error(),
		Kind:     string(apperrors.TypeOf(err)),
	}
}

func (o *Orchestrator) fail(log logger.Logger, result *models.BackupResult, message string, err error) *models.BackupResult {
	o.transition(log, StateFailed)
	result.Success = false
	result.Message = fmt.Sprintf("%s: %v", message, err)
	log.WithError(err).WithField("error_type", string(apperrors.TypeOf(err))).Error(message)
	return result
}

func (o *Orchestrator) transition(log logger.Logger, s State) {
	o.state = s
	log.DebugWithFields("State changed", map[string]interface{}{"state": s.String()})
	o.reporter.StateChanged(s)
}

// sortByArea orders photos by their largest variant, biggest first.
// Equal areas keep the order the API returned them in.
func sortByArea(list []models.Photo) {
	sort.SliceStable(list, func(i, j int) bool {
		return photos.MaxArea(list[i]) > photos.MaxArea(list[j])
	})
}

type nopReporter struct{}

func (nopReporter) StateChanged(State)               {}
func (nopReporter) Started(int, string)              {}
func (nopReporter) ItemDone(string, error, int, int) {}
func (nopReporter) Finished(*models.BackupResult)    {}
