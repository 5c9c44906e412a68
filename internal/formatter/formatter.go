// package formatter provides functions to export favorites data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// FavoritesExport is a user's materialized favorites list prepared for writing.
type FavoritesExport struct {
	Username   string           `json:"username"`
	ExportedAt time.Time        `json:"exported_at"`
	Favorites  models.Favorites `json:"favorites"`
	// Posters maps movie IDs to poster files relative to the export directory.
	Posters map[string]string `json:"posters,omitempty"`
}

// ExportMetadata summarizes an export without its movies.
type ExportMetadata struct {
	Username   string    `json:"username"`
	ExportedAt time.Time `json:"exported_at"`
	Movies     int       `json:"movies"`
	Dropped    int       `json:"dropped"`
	Missing    []string  `json:"missing,omitempty"`
}

// ValidFormat reports whether format is one of the supported export formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
		return true
	}
	return false
}

// Metadata returns the summary of export.
func (e *FavoritesExport) Metadata() ExportMetadata {
	return ExportMetadata{
		Username:   e.Username,
		ExportedAt: e.ExportedAt,
		Movies:     len(e.Favorites.Movies),
		Dropped:    e.Favorites.Dropped,
		Missing:    e.Favorites.Missing,
	}
}

// ExportToCSV converts favorites to CSV format with columns: ID, Title, Director, Genre, Featured, ImagePath
func ExportToCSV(export *FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Director", "Genre", "Featured", "ImagePath"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, movie := range export.Favorites.Movies {
		record := []string{
			movie.ID,
			movie.Title,
			movie.Director.Name,
			movie.Genre.Name,
			strconv.FormatBool(movie.Featured),
			movie.ImagePath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts favorites to Markdown, embedding any downloaded posters.
func ExportToMarkdown(export *FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s's favorite movies\n\n", export.Username)
	fmt.Fprintf(&buf, "**Movies**: %d\n", len(export.Favorites.Movies))
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.Format(time.RFC1123))
	}
	if export.Favorites.Dropped > 0 {
		fmt.Fprintf(&buf, "**Unavailable**: %d\n", export.Favorites.Dropped)
	}
	buf.WriteString("\n")

	for i, movie := range export.Favorites.Movies {
		fmt.Fprintf(&buf, "## %d. %s\n\n", i+1, movie.Title)

		if poster, ok := export.Posters[movie.ID]; ok {
			fmt.Fprintf(&buf, "![Poster](%s)\n\n", poster)
		}

		d := movie.Director
		fmt.Fprintf(&buf, "**Director**: %s (%s-%s)\n", d.Name, shared.YearString(string(d.Birth)), deathString(d.Death))
		fmt.Fprintf(&buf, "**Genre**: %s\n", movie.Genre.Name)
		if movie.Featured {
			buf.WriteString("**Featured**\n")
		}
		if movie.Description != "" {
			fmt.Fprintf(&buf, "\n%s\n", movie.Description)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func deathString(y models.Year) string {
	if y == "" {
		return ""
	}
	return string(y)
}

// ExportToText converts favorites to plain text format
func ExportToText(export *FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "User: %s\n", export.Username)
	fmt.Fprintf(&buf, "Favorites: %d\n", len(export.Favorites.Movies))
	if export.Favorites.Dropped > 0 {
		fmt.Fprintf(&buf, "Unavailable: %d\n", export.Favorites.Dropped)
	}
	buf.WriteString("\n")

	for i, movie := range export.Favorites.Movies {
		fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, movie.Title, movie.Director.Name, movie.Genre.Name)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
//
// A nil client uses one with a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of export metadata (without movies)
func ToMetadataJSON(export *FavoritesExport) ([]byte, error) {
	return shared.MarshalJSON(export.Metadata(), true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	MoviesFile   string
	MetadataFile string
}

// WriteCSVExport writes favorites to CSV format with an accompanying metadata JSON file.
//
// Creates {base}_favorites.csv and {base}_metadata.json; base defaults to the username.
func WriteCSVExport(export *FavoritesExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Username
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	moviesFile := baseFilepath + "_favorites.csv"
	if err := os.WriteFile(moviesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		MoviesFile:   moviesFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport writes favorites to {outputDir}/README.md.
func WriteMarkdownExport(export *FavoritesExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.Username
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport writes favorites to plain text format.
//
// Defaults to {username}_favorites.txt as the filename.
func WriteTextExport(export *FavoritesExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_favorites.txt", export.Username)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the full export as indented JSON.
func WriteJSONExport(export *FavoritesExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_favorites.json", export.Username)
	}

	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// WriteExport writes export in format under outputDir and returns the files created.
func WriteExport(export *FavoritesExport, format, outputDir string) ([]string, error) {
	base := filepath.Join(outputDir, export.Username)

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(export, base)
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.MoviesFile, res.MetadataFile}, nil
	case FormatMarkdown:
		path, err := WriteMarkdownExport(export, outputDir)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return []string{path}, nil
	case FormatText:
		path, err := WriteTextExport(export, base+"_favorites.txt")
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil
	case FormatJSON, "":
		path, err := WriteJSONExport(export, base+"_favorites.json")
		if err != nil {
			return nil, fmt.Errorf("JSON export failed: %w", err)
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}
