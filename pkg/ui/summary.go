package ui

import (
	"fmt"
	"strings"

	"vkbackup/pkg/models"
)

// Summary renders the outcome of a backup run as a bordered block
func Summary(result *models.BackupResult) string {
	var b strings.Builder

	if result.Success {
		b.WriteString(Green("✓ Backup completed"))
	} else {
		b.WriteString(Red("✗ Backup failed"))
	}
	if result.Message != "" {
		b.WriteString("\n" + Dim(result.Message))
	}

	rows := [][2]string{
		{"Uploaded", fmt.Sprintf("%d of %d", result.UploadedPhotos, result.TotalPhotos)},
	}
	if result.FolderName != "" {
		rows = append(rows, [2]string{"Folder", result.FolderName})
	}
	if result.ManifestPath != "" {
		rows = append(rows, [2]string{"Manifest", result.ManifestPath})
	}
	if result.Duration > 0 {
		rows = append(rows, [2]string{"Duration", formatDuration(result.Duration)})
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("\n%s %s", Cyan(fmt.Sprintf("%-9s", row[0]+":")), Yellow(row[1])))
	}

	for _, f := range result.Failures {
		b.WriteString(fmt.Sprintf("\n%s photo %d: %s", Red("•"), f.PhotoID, f.Reason))
	}

	return summaryStyle.Render(b.String())
}
