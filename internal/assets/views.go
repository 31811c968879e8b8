package assets

import (
	"context"

	"satchel/internal/localid"
	"satchel/internal/media"
)

// viewDef maps a stored item type to the virtual folder synthesized for
// it. Views appear only when at least one item of the type exists.
type viewDef struct {
	itemType       string
	name           string
	viewType       string
	collectionType string
}

var viewDefs = []viewDef{
	{media.TypeAudio, "Music", "MusicView", media.CollectionMusic},
	{media.TypePhoto, "Photos", "PhotosView", media.CollectionPhotos},
	{media.TypeEpisode, "TV", "TVView", media.CollectionTVShows},
	{media.TypeMovie, "Movies", "MoviesView", media.CollectionMovies},
	{media.TypeVideo, "Videos", "VideosView", media.CollectionHomeVideos},
	{media.TypeMusicVideo, "Music Videos", "MusicVideosView", media.CollectionMusicVideos},
}

// GetViews synthesizes the virtual library folders for a server based
// on which item types are present locally.
func (m *Manager) GetViews(ctx context.Context, serverID string) ([]media.Item, error) {
	types, err := m.store.DistinctItemTypes(ctx, serverID)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(types))
	for _, t := range types {
		present[t] = true
	}

	var views []media.Item
	for _, def := range viewDefs {
		if !present[def.itemType] {
			continue
		}
		views = append(views, media.Item{
			Name:           def.name,
			ServerID:       serverID,
			ID:             localid.ToLocalView(def.viewType),
			Type:           def.viewType,
			CollectionType: def.collectionType,
			IsFolder:       true,
		})
	}
	return views, nil
}

// translateVirtualView maps a virtual folder id onto the concrete item
// type its listing should contain. Recursive queries descend to leaf
// media; non-recursive queries list the folder's immediate children.
// Returns false when the id is not a virtual folder.
func translateVirtualView(parentID string, recursive bool) (string, bool) {
	switch parentID {
	case "MusicView":
		if recursive {
			return media.TypeAudio, true
		}
		return media.TypeMusicAlbum, true
	case "PhotosView":
		if recursive {
			return media.TypePhoto, true
		}
		return media.TypePhotoAlbum, true
	case "TVView":
		if recursive {
			return media.TypeEpisode, true
		}
		return media.TypeSeries, true
	case "VideosView":
		return media.TypeVideo, true
	case "MoviesView":
		return media.TypeMovie, true
	case "MusicVideosView":
		return media.TypeMusicVideo, true
	}
	return "", false
}
