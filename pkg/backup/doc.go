// Package backup copies VK profile photos to Yandex.Disk.
//
// An Orchestrator drives one run through these states:
//
//	validating_credentials -> fetching_metadata -> provisioning_folder ->
//	uploading_items -> finalizing -> done
//
// A run ends early in no_photos_found when the profile has nothing to copy,
// or in failed when a setup step errors or no upload is accepted. Failures
// of single photos are recorded in the result and never stop the loop.
//
// Usage:
//
//	o, err := backup.NewFromConfig(cfg, logger.GetLogger())
//	if err != nil {
//	    return err
//	}
//	o.SetReporter(ui.NewProgressDisplay(os.Stdout, false))
//	result := o.Run(ctx, "53688675", 5)
//	if !result.Success {
//	    return errors.New(result.Message)
//	}
//
// Photos are uploaded largest first into <prefix>_<owner>_<YYYY-MM-DD>.
// After at least one accepted upload the manifest photos_info_<owner>.json
// is written with one {file_name, size} entry per uploaded photo.
package backup
