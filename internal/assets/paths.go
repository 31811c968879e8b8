package assets

import (
	"fmt"
	"strings"

	"satchel/internal/filerepo"
	"satchel/internal/language"
	"satchel/internal/media"
	"satchel/internal/store"
)

// DirectoryPath derives the sanitized folder segments an item's media
// file lives under: a top-level bucket by kind, then artist/series/
// season/album levels where present.
func DirectoryPath(item *media.Item) []string {
	var parts []string

	itemType := strings.ToLower(item.Type)
	mediaType := strings.ToLower(item.MediaType)

	switch {
	case itemType == "episode" || itemType == "series" || itemType == "season":
		parts = append(parts, "TV")
	case mediaType == "video":
		parts = append(parts, "Videos")
	case itemType == "audio" || itemType == "musicalbum" || itemType == "musicartist":
		parts = append(parts, "Music")
	case itemType == "photo" || itemType == "photoalbum":
		parts = append(parts, "Photos")
	}

	if item.AlbumArtist != "" {
		parts = append(parts, item.AlbumArtist)
	}
	if item.SeriesName != "" {
		parts = append(parts, item.SeriesName)
	}
	if item.SeasonName != "" {
		parts = append(parts, item.SeasonName)
	}
	if item.Album != "" {
		parts = append(parts, item.Album)
	}
	// Standalone videos and folders get their own directory named after
	// the item; episodes share the season folder.
	if (mediaType == "video" && itemType != "episode") || item.IsFolder {
		parts = append(parts, item.Name)
	}

	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		sanitized = append(sanitized, filerepo.ValidFileName(part))
	}
	return sanitized
}

// LocalFileName derives the sanitized file name for an item's media
// file, preferring the server's original file name.
func LocalFileName(item *media.Item, originalFileName string) (string, error) {
	name := originalFileName
	if name == "" {
		name = item.Name
	}
	if name == "" {
		return "", fmt.Errorf("item %s has no usable file name", item.ID)
	}
	return filerepo.ValidFileName(name), nil
}

// ImagePath derives the metadata path segments for a stored image
// variant. Images are stored without an extension; consumers detect the
// format from content.
func ImagePath(itemID string, imageType media.ImageType, index int) []string {
	if index < 0 {
		index = 0
	}
	return []string{"images", fmt.Sprintf("%s_%s_%d", itemID, imageType, index)}
}

// SubtitleSaveFileName derives the path a downloaded subtitle stream is
// written to, next to the item's media file. Language codes are
// normalized to ISO 639-2 so players recognize the sidecar.
func SubtitleSaveFileName(localItem *store.LocalItem, mediaPath, lang string, isForced bool, format string) string {
	name := nameWithoutExtension(mediaPath)

	if lang = language.Normalize(lang); lang != "" {
		name += "." + lang
	}
	if isForced {
		name += ".foreign"
	}
	name += "." + strings.ToLower(format)

	mediaFolder := filerepo.ParentPath(localItem.LocalPath)
	return filerepo.CombinePath(mediaFolder, name)
}

func nameWithoutExtension(path string) string {
	fileName := path
	if idx := strings.LastIndexByte(fileName, '/'); idx >= 0 {
		fileName = fileName[idx+1:]
	}
	if pos := strings.LastIndexByte(fileName, '.'); pos > 0 {
		fileName = fileName[:pos]
	}
	return fileName
}
