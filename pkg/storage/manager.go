package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vkbackup/pkg/models"
)

// Manager writes backup manifests into a local directory
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// ManifestName returns the file name of an owner's manifest
func ManifestName(ownerID string) string {
	return fmt.Sprintf("photos_info_%s.json", ownerID)
}

// ManifestPath returns where the manifest for ownerID is written
func (m *Manager) ManifestPath(ownerID string) string {
	return filepath.Join(m.outputDir, ManifestName(ownerID))
}

// WriteManifest stores entries as an indented JSON array and returns the
// file path. The file is replaced atomically.
func (m *Manager) WriteManifest(ownerID string, entries []models.ManifestEntry) (string, error) {
	if entries == nil {
		entries = []models.ManifestEntry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := m.ManifestPath(ownerID)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ReadManifest loads a manifest previously written for ownerID
func (m *Manager) ReadManifest(ownerID string) ([]models.ManifestEntry, error) {
	data, err := os.ReadFile(m.ManifestPath(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var entries []models.ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return entries, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// writeAtomic writes data to a temporary file next to path and renames it
func writeAtomic(path string, data []byte) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
