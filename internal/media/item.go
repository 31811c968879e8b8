package media

import "time"

// Item is the subset of the server's item description the sync engine
// persists and serves offline. Field names and JSON casing follow the
// server's wire format so records round-trip untouched.
type Item struct {
	ID       string `json:"Id,omitempty"`
	ServerID string `json:"ServerId,omitempty"`
	Name     string `json:"Name,omitempty"`
	SortName string `json:"SortName,omitempty"`
	Type     string `json:"Type,omitempty"`

	MediaType      string `json:"MediaType,omitempty"`
	CollectionType string `json:"CollectionType,omitempty"`
	IsFolder       bool   `json:"IsFolder,omitempty"`

	ParentID string `json:"ParentId,omitempty"`

	SeriesID   string `json:"SeriesId,omitempty"`
	SeriesName string `json:"SeriesName,omitempty"`
	SeasonID   string `json:"SeasonId,omitempty"`
	SeasonName string `json:"SeasonName,omitempty"`

	AlbumID     string `json:"AlbumId,omitempty"`
	Album       string `json:"Album,omitempty"`
	AlbumArtist string `json:"AlbumArtist,omitempty"`

	DateCreated  *time.Time `json:"DateCreated,omitempty"`
	RunTimeTicks int64      `json:"RunTimeTicks,omitempty"`

	ImageTags map[ImageType]string `json:"ImageTags,omitempty"`

	BackdropImageTags       []string `json:"BackdropImageTags,omitempty"`
	ParentBackdropImageTags []string `json:"ParentBackdropImageTags,omitempty"`

	SeriesPrimaryImageTag string `json:"SeriesPrimaryImageTag,omitempty"`
	SeriesThumbImageTag   string `json:"SeriesThumbImageTag,omitempty"`
	SeasonPrimaryImageTag string `json:"SeasonPrimaryImageTag,omitempty"`
	AlbumPrimaryImageTag  string `json:"AlbumPrimaryImageTag,omitempty"`

	ParentThumbItemID        string `json:"ParentThumbItemId,omitempty"`
	ParentThumbImageTag      string `json:"ParentThumbImageTag,omitempty"`
	ParentPrimaryImageItemID string `json:"ParentPrimaryImageItemId,omitempty"`
	ParentPrimaryImageTag    string `json:"ParentPrimaryImageTag,omitempty"`
	ParentLogoItemID         string `json:"ParentLogoItemId,omitempty"`
	ParentLogoImageTag       string `json:"ParentLogoImageTag,omitempty"`
	ParentBackdropItemID     string `json:"ParentBackdropItemId,omitempty"`
	ParentArtImageTag        string `json:"ParentArtImageTag,omitempty"`
	PrimaryImageItemID       string `json:"PrimaryImageItemId,omitempty"`

	MediaSources []MediaSource `json:"MediaSources,omitempty"`
	UserData     *UserData     `json:"UserData,omitempty"`

	People         []Person        `json:"People,omitempty"`
	Chapters       []Chapter       `json:"Chapters,omitempty"`
	Studios        []NameRef       `json:"Studios,omitempty"`
	RemoteTrailers []RemoteTrailer `json:"RemoteTrailers,omitempty"`

	SpecialFeatureCount *int `json:"SpecialFeatureCount,omitempty"`
	LocalTrailerCount   *int `json:"LocalTrailerCount,omitempty"`

	CanDelete    bool `json:"CanDelete,omitempty"`
	CanDownload  bool `json:"CanDownload,omitempty"`
	SupportsSync bool `json:"SupportsSync,omitempty"`
}

// MediaSource describes one playable rendition of an item.
type MediaSource struct {
	ID        string `json:"Id,omitempty"`
	Name      string `json:"Name,omitempty"`
	Path      string `json:"Path,omitempty"`
	Protocol  string `json:"Protocol,omitempty"`
	Container string `json:"Container,omitempty"`
	Size      int64  `json:"Size,omitempty"`

	IsLocal              bool `json:"IsLocal,omitempty"`
	SupportsDirectPlay   bool `json:"SupportsDirectPlay,omitempty"`
	SupportsDirectStream bool `json:"SupportsDirectStream,omitempty"`
	SupportsTranscoding  bool `json:"SupportsTranscoding,omitempty"`

	MediaStreams []MediaStream `json:"MediaStreams,omitempty"`
}

// MediaStream describes one stream within a media source.
type MediaStream struct {
	Type           string `json:"Type,omitempty"`
	Index          int    `json:"Index"`
	Codec          string `json:"Codec,omitempty"`
	Language       string `json:"Language,omitempty"`
	IsForced       bool   `json:"IsForced,omitempty"`
	IsExternal     bool   `json:"IsExternal,omitempty"`
	Path           string `json:"Path,omitempty"`
	DeliveryMethod string `json:"DeliveryMethod,omitempty"`
}

// UserData carries per-user playback state embedded in an item.
type UserData struct {
	ItemID                string     `json:"ItemId,omitempty"`
	Key                   string     `json:"Key,omitempty"`
	PlaybackPositionTicks int64      `json:"PlaybackPositionTicks"`
	PlayCount             int        `json:"PlayCount"`
	PlayedPercentage      *float64   `json:"PlayedPercentage,omitempty"`
	IsFavorite            bool       `json:"IsFavorite"`
	Played                bool       `json:"Played"`
	LastPlayedDate        *time.Time `json:"LastPlayedDate,omitempty"`
}

// Person is a cast or crew credit. Offline records never keep these.
type Person struct {
	Name string `json:"Name,omitempty"`
	Role string `json:"Role,omitempty"`
	Type string `json:"Type,omitempty"`
}

// Chapter marks a position within a media item.
type Chapter struct {
	Name               string `json:"Name,omitempty"`
	StartPositionTicks int64  `json:"StartPositionTicks"`
}

// NameRef is a named reference such as a studio.
type NameRef struct {
	Name string `json:"Name,omitempty"`
	ID   string `json:"Id,omitempty"`
}

// RemoteTrailer is an external trailer link.
type RemoteTrailer struct {
	URL  string `json:"Url,omitempty"`
	Name string `json:"Name,omitempty"`
}

// ImageType identifies an image variant attached to an item.
type ImageType string

const (
	ImagePrimary  ImageType = "Primary"
	ImageLogo     ImageType = "Logo"
	ImageArt      ImageType = "Art"
	ImageBanner   ImageType = "Banner"
	ImageThumb    ImageType = "Thumb"
	ImageBackdrop ImageType = "Backdrop"
)

// Item type values the engine branches on.
const (
	TypeAudio       = "Audio"
	TypePhoto       = "Photo"
	TypeEpisode     = "Episode"
	TypeMovie       = "Movie"
	TypeVideo       = "Video"
	TypeMusicVideo  = "MusicVideo"
	TypeSeries      = "Series"
	TypeSeason      = "Season"
	TypeMusicAlbum  = "MusicAlbum"
	TypePhotoAlbum  = "PhotoAlbum"
	TypeMusicArtist = "MusicArtist"
	TypeAudioBook   = "AudioBook"
)

// Media type values.
const (
	MediaTypeAudio = "Audio"
	MediaTypeVideo = "Video"
	MediaTypePhoto = "Photo"
)

// Collection type values assigned to library views.
const (
	CollectionMusic       = "music"
	CollectionPhotos      = "photos"
	CollectionTVShows     = "tvshows"
	CollectionMovies      = "movies"
	CollectionHomeVideos  = "homevideos"
	CollectionMusicVideos = "musicvideos"
)

// Media source protocol values.
const (
	ProtocolFile = "File"
	ProtocolHTTP = "Http"
)

// Subtitle delivery method applied to locally stored subtitle streams.
const DeliveryMethodExternal = "External"

// MediaStream type values.
const StreamTypeSubtitle = "Subtitle"

// ScrubForOffline drops metadata that has no use in offline storage.
// People, chapters, and studio lists are bulky and only rendered online.
func (i *Item) ScrubForOffline() {
	i.CanDelete = false
	i.CanDownload = false
	i.SupportsSync = false
	i.People = nil
	i.Chapters = nil
	i.Studios = nil
	i.RemoteTrailers = nil
	i.SpecialFeatureCount = nil
	i.LocalTrailerCount = nil
}

// ScrubContainer prepares a parent container record (series, season,
// album) for offline storage. Containers additionally lose backdrop and
// inherited parent image references.
func (i *Item) ScrubContainer() {
	i.ScrubForOffline()
	i.BackdropImageTags = nil
	i.ParentBackdropImageTags = nil
	i.ParentArtImageTag = ""
	i.ParentLogoImageTag = ""
}

// ImageTag returns the tag for an image type, or "" when absent.
func (i *Item) ImageTag(imageType ImageType) string {
	if i.ImageTags == nil {
		return ""
	}
	return i.ImageTags[imageType]
}

// IsContainerType reports whether an item type groups other items
// rather than being downloadable media itself.
func IsContainerType(itemType string) bool {
	switch itemType {
	case TypeSeries, TypeSeason, TypeMusicAlbum, TypePhotoAlbum:
		return true
	default:
		return false
	}
}
