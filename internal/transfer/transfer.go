// Package transfer moves media, image, and subtitle files from a server
// onto local storage.
package transfer

import (
	"context"

	"satchel/internal/store"
)

// DownloadResult describes the outcome of a media file download.
// Complete is false when the transfer was handed to a background queue
// and will finish after the call returns.
type DownloadResult struct {
	Path     string
	Complete bool
}

// Manager performs downloads and tracks which target paths are still in
// flight.
type Manager interface {
	// DownloadFile fetches the main media file for a local item. The
	// target path is derived from the item's local path parts.
	DownloadFile(ctx context.Context, url string, item *store.LocalItem) (*DownloadResult, error)

	// DownloadImage fetches an image into the metadata area and returns
	// the local path.
	DownloadImage(ctx context.Context, url string, pathParts []string) (string, error)

	// DownloadSubtitles fetches a subtitle file to the given path and
	// returns it.
	DownloadSubtitles(ctx context.Context, url, filePath string) (string, error)

	// ResyncTransfers reconciles the queue with any transfers that
	// completed outside the process.
	ResyncTransfers(ctx context.Context) error

	// DownloadCount returns the number of transfers still in flight.
	DownloadCount(ctx context.Context) (int, error)

	// IsDownloadFileInQueue reports whether the given target path has a
	// pending transfer.
	IsDownloadFileInQueue(path string) bool

	// EnableBackgroundCompletion reports whether transfers can complete
	// after DownloadFile returns.
	EnableBackgroundCompletion() bool
}
