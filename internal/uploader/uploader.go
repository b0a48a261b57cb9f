package uploader

import (
	"context"
	"fmt"
	"time"

	"vkbackup/pkg/logger"
	"vkbackup/pkg/models"
	"vkbackup/pkg/ratelimit"
	"vkbackup/pkg/yadisk"
)

// Job is a single photo to copy into the destination folder
type Job struct {
	Photo    models.Photo
	FileName string
	// Size is the chosen variant; Err is set instead when selection failed
	Size models.SizeVariant
	Err  error
	// Path is the destination path relative to the disk root
	Path string
}

// Result is the outcome of one job
type Result struct {
	Job      Job
	Success  bool
	Error    error
	Duration time.Duration
	Receipt  *yadisk.UploadReceipt
}

// Uploader is the destination side of a transfer
type Uploader interface {
	UploadFromURL(ctx context.Context, destinationPath, sourceURL string) (*yadisk.UploadReceipt, error)
}

// Callback is invoked after every finished job with the running totals
type Callback func(result Result, done, total int)

// Runner processes jobs one at a time with a fixed pause between attempts.
// A failing job never stops the remaining ones.
type Runner struct {
	client Uploader
	pacer  ratelimit.Limiter
	logger logger.Logger
}

// NewRunner creates a runner. The pacer is waited on before every attempt;
// nil disables pacing.
func NewRunner(client Uploader, pacer ratelimit.Limiter, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		client: client,
		pacer:  pacer,
		logger: log.WithField("component", "uploader"),
	}
}

// Run executes jobs in order and returns one result per attempted job.
// When ctx is cancelled the remaining jobs are not attempted.
func (r *Runner) Run(ctx context.Context, jobs []Job, onResult Callback) []Result {
	results := make([]Result, 0, len(jobs))

	for i, job := range jobs {
		if ctx.Err() != nil {
			r.logger.WarnWithFields("Upload loop cancelled", map[string]interface{}{
				"remaining": len(jobs) - i,
			})
			break
		}

		if r.pacer != nil && job.Err == nil {
			if err := r.pacer.Wait(ctx); err != nil {
				break
			}
		}

		result := r.process(ctx, job)
		results = append(results, result)

		if onResult != nil {
			onResult(result, i+1, len(jobs))
		}
	}

	return results
}

// process handles a single job
func (r *Runner) process(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{Job: job}

	if job.Err != nil {
		result.Error = job.Err
		result.Duration = time.Since(start)
		logger.LogUpload(r.logger, job.Photo.ID, job.FileName, "", job.Err)
		return result
	}

	receipt, err := r.client.UploadFromURL(ctx, job.Path, job.Size.URL)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("upload %s: %w", job.FileName, err)
		logger.LogUpload(r.logger, job.Photo.ID, job.FileName, "", err)
		return result
	}

	result.Success = true
	result.Receipt = receipt
	var operation string
	if receipt != nil {
		operation = receipt.OperationHref
	}
	logger.LogUpload(r.logger, job.Photo.ID, job.FileName, operation, nil)
	return result
}

// Successful returns the results that succeeded, in order
func Successful(results []Result) []Result {
	var ok []Result
	for _, res := range results {
		if res.Success {
			ok = append(ok, res)
		}
	}
	return ok
}
