package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"satchel/internal/assets"
	"satchel/internal/localid"
	"satchel/internal/logging"
	"satchel/internal/media"
	"satchel/internal/store"
)

// DownloadsTitle is the display name of the synthetic top-level local
// folder.
const DownloadsTitle = "Downloads"

// Facade wraps a plain client and serves locally synced content
// without contacting the server. Requests referencing local ids are
// answered from the asset manager; everything else delegates to the
// wrapped client.
type Facade struct {
	remote Client
	assets *assets.Manager
	logger *slog.Logger
}

// NewFacade builds a local-aware client around a plain one.
func NewFacade(remote Client, assetManager *assets.Manager, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Facade{
		remote: remote,
		assets: assetManager,
		logger: logging.NewComponentLogger(logger, "facade"),
	}
}

func (f *Facade) ServerID() string    { return f.remote.ServerID() }
func (f *Facade) ServerName() string  { return f.remote.ServerName() }
func (f *Facade) UserID() string      { return f.remote.UserID() }
func (f *Facade) DeviceID() string    { return f.remote.DeviceID() }
func (f *Facade) AccessToken() string { return f.remote.AccessToken() }

func (f *Facade) GetURL(handler string, params url.Values) (string, error) {
	return f.remote.GetURL(handler, params)
}

// toLocal rewrites every id-bearing field on an item so UI consumers
// route follow-up requests back through the local branch.
func toLocal(item *media.Item) {
	item.ID = localid.ToLocal(item.ID)
	item.SeriesID = localid.ToLocal(item.SeriesID)
	item.SeasonID = localid.ToLocal(item.SeasonID)
	item.AlbumID = localid.ToLocal(item.AlbumID)
	item.ParentID = localid.ToLocal(item.ParentID)
	item.ParentThumbItemID = localid.ToLocal(item.ParentThumbItemID)
	item.ParentPrimaryImageItemID = localid.ToLocal(item.ParentPrimaryImageItemID)
	item.PrimaryImageItemID = localid.ToLocal(item.PrimaryImageItemID)
	item.ParentLogoItemID = localid.ToLocal(item.ParentLogoItemID)
	item.ParentBackdropItemID = localid.ToLocal(item.ParentBackdropItemID)
	item.ParentBackdropImageTags = nil
}

func localizeAll(items []media.Item) []media.Item {
	for i := range items {
		toLocal(&items[i])
	}
	return items
}

func markLocalSources(sources []media.MediaSource) []media.MediaSource {
	for i := range sources {
		sources[i].SupportsDirectPlay = true
		sources[i].SupportsDirectStream = false
		sources[i].SupportsTranscoding = false
		sources[i].IsLocal = true
	}
	return sources
}

// GetPlaybackInfo serves playback sources from local storage when the
// item is synced; otherwise it asks the server. Local lookup failures
// fall back to the server rather than failing playback.
func (f *Facade) GetPlaybackInfo(ctx context.Context, itemID string) (*PlaybackInfoResponse, error) {
	id := localid.Parse(itemID)

	if id.Kind() == localid.Local {
		item, err := f.assets.GetLocalItem(ctx, f.ServerID(), id.Value())
		if err == nil && item != nil {
			return &PlaybackInfoResponse{MediaSources: markLocalSources(item.Item.MediaSources)}, nil
		}
		if err != nil {
			f.logger.Warn("local playback info lookup failed", logging.Error(err))
		}
		return f.remote.GetPlaybackInfo(ctx, itemID)
	}

	// A plain id may still be synced; prefer the local copy when the
	// file is actually present.
	item, err := f.assets.GetLocalItem(ctx, f.ServerID(), id.Value())
	if err == nil && item != nil && item.LocalPath != "" {
		exists, existsErr := f.assets.FileExists(item.LocalPath)
		if existsErr == nil && exists {
			return &PlaybackInfoResponse{MediaSources: markLocalSources(item.Item.MediaSources)}, nil
		}
	}
	return f.remote.GetPlaybackInfo(ctx, itemID)
}

func hasLocal(ids []string) bool {
	for _, id := range ids {
		if localid.IsLocalID(id) {
			return true
		}
	}
	return false
}

// GetItems answers listing requests that reference local content from
// the local store; everything else delegates.
func (f *Facade) GetItems(ctx context.Context, userID string, req ItemsRequest) (*QueryResult, error) {
	if req.ParentID == localid.TopLevelView {
		folders, err := f.GetLocalFolders(ctx)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Items: folders, TotalRecordCount: len(folders)}, nil
	}

	if localid.IsLocalID(req.ParentID) || localid.IsLocalID(req.SeriesID) ||
		localid.IsLocalID(req.SeasonID) || localid.IsLocalViewID(req.ParentID) ||
		hasLocal(req.AlbumIDs) {
		items, err := f.assets.GetViewItems(ctx, f.ServerID(), queryFromRequest(req))
		if err != nil {
			return nil, err
		}
		items = localizeAll(items)
		return &QueryResult{Items: items, TotalRecordCount: len(items)}, nil
	}

	if hasLocal(req.ExcludeItemIDs) {
		return EmptyResult(), nil
	}

	if hasLocal(req.IDs) {
		items, err := f.assets.GetItemsFromIDs(ctx, f.ServerID(), req.IDs)
		if err != nil {
			return nil, err
		}
		items = localizeAll(items)
		return &QueryResult{Items: items, TotalRecordCount: len(items)}, nil
	}

	return f.remote.GetItems(ctx, userID, req)
}

func queryFromRequest(req ItemsRequest) assets.Query {
	filters := make([]assets.ItemFilter, 0, len(req.Filters))
	for _, filter := range req.Filters {
		filters = append(filters, assets.ItemFilter(filter))
	}
	return assets.Query{
		ParentID:         req.ParentID,
		SeriesID:         req.SeriesID,
		SeasonID:         req.SeasonID,
		AlbumIDs:         req.AlbumIDs,
		IncludeItemTypes: req.IncludeItemTypes,
		MediaTypes:       req.MediaTypes,
		Filters:          filters,
		Recursive:        req.Recursive,
		SortBy:           req.SortBy,
		Limit:            req.Limit,
	}
}

// GetUserViews returns the server's views, optionally appending the
// local Downloads folder when any local content exists.
func (f *Facade) GetUserViews(ctx context.Context, userID string) (*QueryResult, error) {
	return f.GetUserViewsWithLocal(ctx, userID, false)
}

// GetUserViewsWithLocal is GetUserViews with the local Downloads folder
// appended when requested and available. A failure synthesizing the
// local view never fails the whole listing.
func (f *Facade) GetUserViewsWithLocal(ctx context.Context, userID string, includeLocal bool) (*QueryResult, error) {
	result, err := f.remote.GetUserViews(ctx, userID)
	if err != nil {
		return nil, err
	}

	if includeLocal {
		localView, viewErr := f.getLocalView(ctx)
		if viewErr != nil {
			f.logger.Debug("no local view available", logging.Error(viewErr))
		} else {
			result.Items = append(result.Items, *localView)
			result.TotalRecordCount++
		}
	}
	return result, nil
}

// GetItem resolves an item by id, serving synthetic folders and synced
// items locally.
func (f *Facade) GetItem(ctx context.Context, userID, itemID string) (*media.Item, error) {
	id := localid.Parse(itemID)

	switch id.Kind() {
	case localid.TopLevel:
		return f.getLocalView(ctx)
	case localid.LocalView:
		folders, err := f.GetLocalFolders(ctx)
		if err != nil {
			return nil, err
		}
		for i := range folders {
			if folders[i].ID == itemID {
				return &folders[i], nil
			}
		}
		return nil, fmt.Errorf("local view %s not found", itemID)
	case localid.Local:
		item, err := f.assets.GetLocalItem(ctx, f.ServerID(), id.Value())
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("local item %s not found", id.Value())
		}
		result := item.Item
		toLocal(&result)
		return &result, nil
	default:
		return f.remote.GetItem(ctx, userID, itemID)
	}
}

// GetLocalFolders synthesizes the virtual folders for local content.
func (f *Facade) GetLocalFolders(ctx context.Context) ([]media.Item, error) {
	return f.assets.GetViews(ctx, f.ServerID())
}

func (f *Facade) getLocalView(ctx context.Context) (*media.Item, error) {
	views, err := f.GetLocalFolders(ctx)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("no local content on server %s", f.ServerID())
	}
	return &media.Item{
		Name:     DownloadsTitle,
		ServerID: f.ServerID(),
		ID:       localid.TopLevelView,
		Type:     localid.TopLevelView,
		IsFolder: true,
	}, nil
}

// GetNextUpEpisodes has no local equivalent; local series get an empty
// result.
func (f *Facade) GetNextUpEpisodes(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error) {
	if localid.IsLocalID(seriesID) {
		return EmptyResult(), nil
	}
	return f.remote.GetNextUpEpisodes(ctx, seriesID, req)
}

// GetSeasons lists seasons; local series resolve through the local
// item listing.
func (f *Facade) GetSeasons(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error) {
	if localid.IsLocalID(seriesID) {
		req.SeriesID = seriesID
		req.IncludeItemTypes = []string{media.TypeSeason}
		return f.GetItems(ctx, f.UserID(), req)
	}
	return f.remote.GetSeasons(ctx, seriesID, req)
}

// GetEpisodes lists episodes; local series or seasons resolve through
// the local item listing.
func (f *Facade) GetEpisodes(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error) {
	itemsReq := req
	itemsReq.SeriesID = seriesID
	itemsReq.IncludeItemTypes = []string{media.TypeEpisode}

	if localid.IsLocalID(req.SeasonID) {
		return f.GetItems(ctx, f.UserID(), itemsReq)
	}
	if localid.IsLocalID(seriesID) {
		itemsReq.Recursive = true
		return f.GetItems(ctx, f.UserID(), itemsReq)
	}
	return f.remote.GetEpisodes(ctx, seriesID, req)
}

// GetLatestOfflineItems lists the most recently synced local items.
func (f *Facade) GetLatestOfflineItems(ctx context.Context, req ItemsRequest) ([]media.Item, error) {
	query := queryFromRequest(req)
	query.SortBy = assets.SortByDateCreated

	items, err := f.assets.GetViewItems(ctx, f.ServerID(), query)
	if err != nil {
		return nil, err
	}
	// Newest first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return localizeAll(items), nil
}

// GetThemeMedia has no local equivalent.
func (f *Facade) GetThemeMedia(ctx context.Context, userID, itemID string) (*QueryResult, error) {
	if localid.Parse(itemID).IsLocal() {
		return EmptyResult(), nil
	}
	return f.remote.GetThemeMedia(ctx, userID, itemID)
}

// GetSpecialFeatures has no local equivalent.
func (f *Facade) GetSpecialFeatures(ctx context.Context, userID, itemID string) ([]media.Item, error) {
	if localid.IsLocalID(itemID) {
		return []media.Item{}, nil
	}
	return f.remote.GetSpecialFeatures(ctx, userID, itemID)
}

// GetSimilarItems has no local equivalent.
func (f *Facade) GetSimilarItems(ctx context.Context, itemID string, req ItemsRequest) (*QueryResult, error) {
	if localid.IsLocalID(itemID) {
		return EmptyResult(), nil
	}
	return f.remote.GetSimilarItems(ctx, itemID, req)
}

// GetIntros has no local equivalent.
func (f *Facade) GetIntros(ctx context.Context, itemID string) (*QueryResult, error) {
	if localid.IsLocalID(itemID) {
		return EmptyResult(), nil
	}
	return f.remote.GetIntros(ctx, itemID)
}

// GetInstantMixFromItem has no local equivalent.
func (f *Facade) GetInstantMixFromItem(ctx context.Context, itemID string, req ItemsRequest) (*QueryResult, error) {
	if localid.IsLocalID(itemID) {
		return EmptyResult(), nil
	}
	return f.remote.GetInstantMixFromItem(ctx, itemID, req)
}

// UpdateFavoriteStatus is a no-op for local items; favorites are a
// server-side concept.
func (f *Facade) UpdateFavoriteStatus(ctx context.Context, userID, itemID string, isFavorite bool) error {
	if localid.IsLocalID(itemID) {
		return nil
	}
	return f.remote.UpdateFavoriteStatus(ctx, userID, itemID, isFavorite)
}

// GetScaledImageURL returns a local file path for synced items.
func (f *Facade) GetScaledImageURL(itemID string, opts ImageOptions) (string, error) {
	if localid.IsLocalID(itemID) {
		return f.assets.ImageURL(localid.Strip(itemID), opts.Type, opts.Index), nil
	}
	return f.remote.GetScaledImageURL(itemID, opts)
}

// GetItemDownloadURL returns the local file path for synced items.
func (f *Facade) GetItemDownloadURL(ctx context.Context, itemID string) (string, error) {
	if localid.IsLocalID(itemID) {
		item, err := f.assets.GetLocalItem(ctx, f.ServerID(), localid.Strip(itemID))
		if err != nil {
			return "", err
		}
		if item == nil || item.LocalPath == "" {
			return "", fmt.Errorf("local item %s has no media file", itemID)
		}
		return item.LocalPath, nil
	}
	return f.remote.GetItemDownloadURL(ctx, itemID)
}

// ReportPlaybackStart is not reported for local playback.
func (f *Facade) ReportPlaybackStart(ctx context.Context, report PlaybackReport) error {
	if localid.IsLocalID(report.ItemID) {
		return nil
	}
	return f.remote.ReportPlaybackStart(ctx, report)
}

// ReportPlaybackProgress updates the local item's embedded user data
// instead of calling the server.
func (f *Facade) ReportPlaybackProgress(ctx context.Context, report PlaybackReport) error {
	if !localid.IsLocalID(report.ItemID) {
		return f.remote.ReportPlaybackProgress(ctx, report)
	}

	item, err := f.assets.GetLocalItem(ctx, f.ServerID(), localid.Strip(report.ItemID))
	if err != nil || item == nil {
		return err
	}

	libraryItem := &item.Item
	if libraryItem.MediaType != media.MediaTypeVideo && libraryItem.Type != media.TypeAudioBook {
		return nil
	}

	if libraryItem.UserData == nil {
		libraryItem.UserData = &media.UserData{ItemID: libraryItem.ID}
	}
	libraryItem.UserData.PlaybackPositionTicks = report.PositionTicks

	percentage := 0.0
	if libraryItem.RunTimeTicks > 0 {
		percentage = 100 * float64(report.PositionTicks) / float64(libraryItem.RunTimeTicks)
		if percentage > 100 {
			percentage = 100
		}
	}
	libraryItem.UserData.PlayedPercentage = &percentage

	return f.assets.AddOrUpdateLocalItem(ctx, item)
}

// ReportPlaybackStopped records a pending user action for local items
// so the play event reaches the server on the next sync pass.
func (f *Facade) ReportPlaybackStopped(ctx context.Context, report PlaybackReport) error {
	if !localid.IsLocalID(report.ItemID) {
		return f.remote.ReportPlaybackStopped(ctx, report)
	}

	return f.assets.RecordUserAction(ctx, &store.UserAction{
		ServerID:      f.ServerID(),
		UserID:        f.UserID(),
		ItemID:        localid.Strip(report.ItemID),
		Type:          store.UserActionPlayed,
		Date:          time.Now().UnixMilli(),
		PositionTicks: report.PositionTicks,
	})
}

// Sync endpoints always go to the server.

func (f *Facade) GetReadySyncItems(ctx context.Context, deviceID string) ([]SyncJobItem, error) {
	return f.remote.GetReadySyncItems(ctx, deviceID)
}

func (f *Facade) ReportSyncJobItemTransferred(ctx context.Context, syncJobItemID string) error {
	return f.remote.ReportSyncJobItemTransferred(ctx, syncJobItemID)
}

func (f *Facade) ReportOfflineActions(ctx context.Context, actions []*store.UserAction) error {
	return f.remote.ReportOfflineActions(ctx, actions)
}

func (f *Facade) SyncData(ctx context.Context, req SyncDataRequest) (*SyncDataResponse, error) {
	return f.remote.SyncData(ctx, req)
}

var _ Client = (*Facade)(nil)
