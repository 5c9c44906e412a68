package tasks

import (
	"fmt"

	"github.com/desertthunder/flix/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	FetchCatalog
	BuildFavorites
	ExportFavorites
	DownloadPosters
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case FetchCatalog:
		return "fetch_catalog"
	case BuildFavorites:
		return "build_favorites"
	case ExportFavorites:
		return "export_favorites"
	case DownloadPosters:
		return "download_posters"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchUserUpdate(username string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUser,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching user %s...", username),
	}
}

func fetchCatalogUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    1,
		Total:   1,
		Message: "Fetching movie catalog...",
	}
}

func materializedUpdate(fav models.Favorites) ProgressUpdate {
	msg := fmt.Sprintf("Loaded %d favorite movies", len(fav.Movies))
	if fav.Dropped > 0 {
		msg = fmt.Sprintf("%s (%d unavailable)", msg, fav.Dropped)
	}
	return ProgressUpdate{
		Phase:   BuildFavorites,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    fav,
	}
}

func exportingUpdate(format string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFavorites,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d movies as %s...", count, format),
	}
}

func posterUpdate(step, total int, res PosterResult) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{
			Phase:   DownloadPosters,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Err),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   DownloadPosters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Title),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
