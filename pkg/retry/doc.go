// Package retry re-runs idempotent operations that failed with a transient
// transport error.
//
// Only errors classified as transport failures are retried. Auth and API
// faults, and context cancellation, end the loop on the first attempt.
//
//	photos, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]models.Photo, error) {
//		return c.fetch(ctx, ownerID, limit)
//	}, retry.FromSettings(cfg.Retry, log))
package retry
