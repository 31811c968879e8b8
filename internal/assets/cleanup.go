package assets

import (
	"context"
	"strings"

	"satchel/internal/logging"
	"satchel/internal/media"
	"satchel/internal/store"
)

// RemoveObsoleteContainerItems deletes series, season, and album
// records that no longer have any child media locally. Containers are
// downloaded alongside their children and become orphans once the last
// child is removed.
func (m *Manager) RemoveObsoleteContainerItems(ctx context.Context, serverID string) error {
	items, err := m.store.ItemsForServer(ctx, serverID)
	if err != nil {
		return err
	}

	requiredSeries := make(map[string]bool)
	requiredSeasons := make(map[string]bool)
	requiredAlbums := make(map[string]bool)
	var containers []*store.LocalItem

	for _, item := range items {
		switch strings.ToLower(item.Item.Type) {
		case "episode":
			if item.Item.SeriesID != "" {
				requiredSeries[item.Item.SeriesID] = true
			}
			if item.Item.SeasonID != "" {
				requiredSeasons[item.Item.SeasonID] = true
			}
		case "audio", "photo":
			if item.Item.AlbumID != "" {
				requiredAlbums[item.Item.AlbumID] = true
			}
		}
		if media.IsContainerType(item.Item.Type) {
			containers = append(containers, item)
		}
	}

	for _, container := range containers {
		required := false
		switch container.Item.Type {
		case media.TypeSeries:
			required = requiredSeries[container.Item.ID]
		case media.TypeSeason:
			required = requiredSeasons[container.Item.ID]
		case media.TypeMusicAlbum, media.TypePhotoAlbum:
			required = requiredAlbums[container.Item.ID]
		}
		if required {
			continue
		}

		m.logger.Info("removing orphaned container",
			logging.String("item_id", container.ID),
			logging.String("type", container.Item.Type))
		if _, err := m.store.RemoveItem(ctx, container.ServerID, container.ID); err != nil {
			return err
		}
	}
	return nil
}
