// Package assets manages locally synced media: item records, virtual
// library views, query emulation, file placement, and pending user
// actions. It is the only component that reads or writes the stores
// directly.
package assets

import (
	"context"
	"fmt"
	"log/slog"

	"satchel/internal/filerepo"
	"satchel/internal/localid"
	"satchel/internal/logging"
	"satchel/internal/media"
	"satchel/internal/store"
	"satchel/internal/transfer"
)

// Manager coordinates the item store, user action store, file
// repository, and transfer manager behind one local-asset surface.
type Manager struct {
	store     *store.Store
	repo      *filerepo.Repository
	transfers transfer.Manager
	logger    *slog.Logger
}

// NewManager builds a local asset manager.
func NewManager(st *store.Store, repo *filerepo.Repository, transfers transfer.Manager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:     st,
		repo:      repo,
		transfers: transfers,
		logger:    logging.NewComponentLogger(logger, "assets"),
	}
}

// GetLocalItem fetches one local item record, or nil when absent.
func (m *Manager) GetLocalItem(ctx context.Context, serverID, itemID string) (*store.LocalItem, error) {
	return m.store.GetItem(ctx, serverID, itemID)
}

// AddOrUpdateLocalItem persists a local item record. The latest write
// wins.
func (m *Manager) AddOrUpdateLocalItem(ctx context.Context, item *store.LocalItem) error {
	return m.store.SaveItem(ctx, item)
}

// ServerItems returns every local item record for a server.
func (m *Manager) ServerItems(ctx context.Context, serverID string) ([]*store.LocalItem, error) {
	return m.store.ItemsForServer(ctx, serverID)
}

// GetItemsFromIDs resolves a list of (possibly local-prefixed) item ids
// into their stored item descriptions.
func (m *Manager) GetItemsFromIDs(ctx context.Context, serverID string, ids []string) ([]media.Item, error) {
	items := make([]media.Item, 0, len(ids))
	for _, id := range ids {
		stripped := localid.Strip(id)
		localItem, err := m.store.GetItem(ctx, serverID, stripped)
		if err != nil {
			return nil, err
		}
		if localItem == nil {
			return nil, fmt.Errorf("local item %s not found on server %s", stripped, serverID)
		}
		items = append(items, localItem.Item)
	}
	return items, nil
}

// RemoveLocalItem deletes an item's media file best-effort, then always
// removes the record. A file that cannot be deleted never strands the
// record.
func (m *Manager) RemoveLocalItem(ctx context.Context, serverID, itemID string) error {
	localItem, err := m.store.GetItem(ctx, serverID, itemID)
	if err != nil {
		return err
	}
	if localItem == nil {
		return nil
	}

	if localItem.LocalPath != "" {
		if err := m.repo.DeleteFile(localItem.LocalPath); err != nil {
			m.logger.Warn("failed to delete media file",
				logging.String("path", localItem.LocalPath),
				logging.Error(err))
		}
	}

	_, err = m.store.RemoveItem(ctx, serverID, itemID)
	return err
}

// FileExists reports whether a path exists in the file repository.
func (m *Manager) FileExists(path string) (bool, error) {
	return m.repo.Exists(path)
}

// ItemFileSize returns the size of a stored media file.
func (m *Manager) ItemFileSize(path string) (int64, error) {
	return m.repo.FileSize(path)
}

// HasImage reports whether an image variant is already stored locally.
// Errors are treated as absence so a broken stat only costs a re-fetch.
func (m *Manager) HasImage(itemID string, imageType media.ImageType, index int) bool {
	path := m.repo.MetadataPath(ImagePath(itemID, imageType, index)...)
	exists, err := m.repo.Exists(path)
	if err != nil {
		return false
	}
	return exists
}

// ImageURL returns the local path an image variant is stored at.
func (m *Manager) ImageURL(itemID string, imageType media.ImageType, index int) string {
	return m.repo.MetadataPath(ImagePath(itemID, imageType, index)...)
}

// DownloadFile fetches an item's media file through the transfer
// manager.
func (m *Manager) DownloadFile(ctx context.Context, url string, item *store.LocalItem) (*transfer.DownloadResult, error) {
	return m.transfers.DownloadFile(ctx, url, item)
}

// DownloadImage fetches an image variant into the metadata area.
func (m *Manager) DownloadImage(ctx context.Context, url, itemID string, imageType media.ImageType, index int) (string, error) {
	return m.transfers.DownloadImage(ctx, url, ImagePath(itemID, imageType, index))
}

// DownloadSubtitles fetches a subtitle file to the given path.
func (m *Manager) DownloadSubtitles(ctx context.Context, url, filePath string) (string, error) {
	return m.transfers.DownloadSubtitles(ctx, url, filePath)
}

// ResyncTransfers reconciles the transfer queue with completed work.
func (m *Manager) ResyncTransfers(ctx context.Context) error {
	return m.transfers.ResyncTransfers(ctx)
}

// DownloadCount returns the number of transfers still in flight.
func (m *Manager) DownloadCount(ctx context.Context) (int, error) {
	return m.transfers.DownloadCount(ctx)
}

// IsDownloadFileInQueue reports whether a target path has a pending
// transfer.
func (m *Manager) IsDownloadFileInQueue(path string) bool {
	return m.transfers.IsDownloadFileInQueue(path)
}

// EnableBackgroundCompletion reports whether downloads can complete
// after the initiating call returns.
func (m *Manager) EnableBackgroundCompletion() bool {
	return m.transfers.EnableBackgroundCompletion()
}
