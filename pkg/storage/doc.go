// Package storage persists the local artifacts of a backup run.
//
// The only artifact is the manifest: a JSON array of {file_name, size}
// objects named photos_info_<owner id>.json. Writes go to a temporary file
// that is renamed into place, so a crash never leaves a truncated manifest.
//
//	manager, err := storage.NewManager(cfg.Backup.ManifestDir)
//	path, err := manager.WriteManifest("53688675", entries)
package storage
