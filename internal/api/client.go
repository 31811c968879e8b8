// Package api talks to media servers: a plain REST client for the
// endpoints the sync engine needs, and a local-aware facade that serves
// synced content without touching the network.
package api

import (
	"context"
	"net/url"

	"satchel/internal/media"
	"satchel/internal/store"
)

// QueryResult mirrors the server's paged list envelope.
type QueryResult struct {
	Items            []media.Item `json:"Items"`
	TotalRecordCount int          `json:"TotalRecordCount"`
	StartIndex       int          `json:"StartIndex"`
}

// EmptyResult returns a result with no items.
func EmptyResult() *QueryResult {
	return &QueryResult{Items: []media.Item{}}
}

// ItemsRequest narrows an item listing. Ids may carry local routing
// prefixes.
type ItemsRequest struct {
	ParentID         string
	SeriesID         string
	SeasonID         string
	AlbumIDs         []string
	IDs              []string
	ExcludeItemIDs   []string
	IncludeItemTypes []string
	Filters          []string
	MediaTypes       []string
	Recursive        bool
	SortBy           string
	SortOrder        string
	Limit            int
}

// ImageOptions selects an image variant and scaling.
type ImageOptions struct {
	Type     media.ImageType
	Index    int
	Tag      string
	MaxWidth int
}

// PlaybackInfoResponse carries the playable sources for an item.
type PlaybackInfoResponse struct {
	MediaSources  []media.MediaSource `json:"MediaSources"`
	PlaySessionID string              `json:"PlaySessionId,omitempty"`
	ErrorCode     string              `json:"ErrorCode,omitempty"`
}

// PlaybackReport describes a playback lifecycle event.
type PlaybackReport struct {
	ItemID        string `json:"ItemId"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused,omitempty"`
}

// SyncJobItem is one server-side download assignment ready for this
// device.
type SyncJobItem struct {
	SyncJobItemID    string           `json:"SyncJobItemId"`
	ItemID           string           `json:"ItemId"`
	OriginalFileName string           `json:"OriginalFileName"`
	Item             *media.Item      `json:"Item"`
	AdditionalFiles  []AdditionalFile `json:"AdditionalFiles"`
}

// AdditionalFile is a sidecar file attached to a sync job item, such as
// an external subtitle.
type AdditionalFile struct {
	Name  string `json:"Name"`
	Type  string `json:"Type"`
	Index int    `json:"Index"`
	Path  string `json:"Path,omitempty"`
}

// AdditionalFileSubtitles marks subtitle sidecar files.
const AdditionalFileSubtitles = "Subtitles"

// SyncDataRequest reports this device's completed items for
// reconciliation.
type SyncDataRequest struct {
	TargetID     string   `json:"TargetId"`
	LocalItemIDs []string `json:"LocalItemIds"`
}

// SyncDataResponse is the server's reconciliation verdict.
type SyncDataResponse struct {
	ItemIDsToRemove []string `json:"ItemIdsToRemove"`
}

// Client is the server surface the sync engine and facade operate on.
type Client interface {
	// Identity.
	ServerID() string
	ServerName() string
	UserID() string
	DeviceID() string
	AccessToken() string

	// URL composition.
	GetURL(handler string, params url.Values) (string, error)
	GetScaledImageURL(itemID string, opts ImageOptions) (string, error)
	GetItemDownloadURL(ctx context.Context, itemID string) (string, error)

	// Item reads.
	GetItem(ctx context.Context, userID, itemID string) (*media.Item, error)
	GetItems(ctx context.Context, userID string, req ItemsRequest) (*QueryResult, error)
	GetUserViews(ctx context.Context, userID string) (*QueryResult, error)
	GetPlaybackInfo(ctx context.Context, itemID string) (*PlaybackInfoResponse, error)
	GetNextUpEpisodes(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error)
	GetSeasons(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error)
	GetEpisodes(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error)
	GetThemeMedia(ctx context.Context, userID, itemID string) (*QueryResult, error)
	GetSpecialFeatures(ctx context.Context, userID, itemID string) ([]media.Item, error)
	GetSimilarItems(ctx context.Context, itemID string, req ItemsRequest) (*QueryResult, error)
	GetIntros(ctx context.Context, itemID string) (*QueryResult, error)
	GetInstantMixFromItem(ctx context.Context, itemID string, req ItemsRequest) (*QueryResult, error)

	// Mutations and reports.
	UpdateFavoriteStatus(ctx context.Context, userID, itemID string, isFavorite bool) error
	ReportPlaybackStart(ctx context.Context, report PlaybackReport) error
	ReportPlaybackProgress(ctx context.Context, report PlaybackReport) error
	ReportPlaybackStopped(ctx context.Context, report PlaybackReport) error

	// Sync endpoints.
	GetReadySyncItems(ctx context.Context, deviceID string) ([]SyncJobItem, error)
	ReportSyncJobItemTransferred(ctx context.Context, syncJobItemID string) error
	ReportOfflineActions(ctx context.Context, actions []*store.UserAction) error
	SyncData(ctx context.Context, req SyncDataRequest) (*SyncDataResponse, error)
}
