package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/flix/internal/shared"
)

// ManifestEntry records the outcome of one poster download.
type ManifestEntry struct {
	MovieID string `json:"movie_id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	File    string `json:"file,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Manifest summarizes an export run.
type Manifest struct {
	Format     string          `json:"format"`
	Username   string          `json:"username"`
	ExportedAt time.Time       `json:"exported_at"`
	Movies     int             `json:"movies"`
	Dropped    int             `json:"dropped"`
	Files      []string        `json:"files"`
	Downloaded int             `json:"posters_downloaded"`
	Failed     int             `json:"posters_failed"`
	Posters    []ManifestEntry `json:"posters,omitempty"`
}

// NewManifestEntry builds an entry; a nil err marks success.
func NewManifestEntry(movieID, title, file string, err error) ManifestEntry {
	if err != nil {
		return ManifestEntry{MovieID: movieID, Title: title, Status: "failed", Error: err.Error()}
	}
	return ManifestEntry{MovieID: movieID, Title: title, Status: "success", File: file}
}

// WriteExportManifest writes manifest as indented JSON to path.
func WriteExportManifest(manifest *Manifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
