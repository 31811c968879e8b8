package api_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"satchel/internal/api"
	"satchel/internal/assets"
	"satchel/internal/filerepo"
	"satchel/internal/logging"
	"satchel/internal/media"
	"satchel/internal/store"
	"satchel/internal/testsupport"
	"satchel/internal/transfer"
)

type facadeFixture struct {
	facade *api.Facade
	remote *testsupport.FakeAPIClient
	store  *store.Store
	repo   *filerepo.Repository
}

func newFacadeFixture(t *testing.T) *facadeFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	repo := filerepo.New(afero.NewMemMapFs(), "/data")
	transfers := transfer.NewHTTPManager(repo, logging.NewNop())
	assetManager := assets.NewManager(st, repo, transfers, logging.NewNop())
	remote := testsupport.NewFakeAPIClient("server-1")
	return &facadeFixture{
		facade: api.NewFacade(remote, assetManager, logging.NewNop()),
		remote: remote,
		store:  st,
		repo:   repo,
	}
}

func (fx *facadeFixture) seed(t *testing.T, localItem *store.LocalItem) {
	t.Helper()
	if err := fx.store.SaveItem(context.Background(), localItem); err != nil {
		t.Fatalf("SaveItem failed: %v", err)
	}
}

func syncedMovie(id, name string) *store.LocalItem {
	return &store.LocalItem{
		ServerID: "server-1",
		ID:       id,
		ItemID:   id,
		Item: media.Item{
			ID:        id,
			ServerID:  "server-1",
			Name:      name,
			Type:      media.TypeMovie,
			MediaType: media.MediaTypeVideo,
		},
		Status: store.StatusSynced,
	}
}

func TestGetItemTopLevelView(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.seed(t, syncedMovie("movie-1", "Heat"))

	item, err := fx.facade.GetItem(ctx, "user-1", "localview")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Name != api.DownloadsTitle || item.ID != "localview" || !item.IsFolder {
		t.Fatalf("unexpected downloads folder: %#v", item)
	}
}

func TestGetItemTopLevelViewRequiresContent(t *testing.T) {
	fx := newFacadeFixture(t)
	if _, err := fx.facade.GetItem(context.Background(), "user-1", "localview"); err == nil {
		t.Fatal("expected error when no local content exists")
	}
}

func TestGetItemLocalView(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.seed(t, syncedMovie("movie-1", "Heat"))

	item, err := fx.facade.GetItem(ctx, "user-1", "localview:MoviesView")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Type != "MoviesView" {
		t.Fatalf("unexpected view: %#v", item)
	}

	if _, err := fx.facade.GetItem(ctx, "user-1", "localview:PhotosView"); err == nil {
		t.Fatal("expected error for absent view")
	}
}

func TestGetItemLocalIDRewritesGuids(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	localItem := syncedMovie("ep-1", "Pilot")
	localItem.Item.Type = media.TypeEpisode
	localItem.Item.SeriesID = "series-1"
	localItem.Item.SeasonID = "season-1"
	localItem.Item.ParentBackdropImageTags = []string{"tag"}
	fx.seed(t, localItem)

	item, err := fx.facade.GetItem(ctx, "user-1", "local:ep-1")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.ID != "local:ep-1" || item.SeriesID != "local:series-1" || item.SeasonID != "local:season-1" {
		t.Fatalf("expected localized ids, got %#v", item)
	}
	if item.ParentBackdropImageTags != nil {
		t.Fatal("expected parent backdrop tags cleared")
	}

	// The stored record must keep raw ids.
	stored, err := fx.store.GetItem(ctx, "server-1", "ep-1")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if stored.Item.ID != "ep-1" || stored.Item.SeriesID != "series-1" {
		t.Fatalf("stored record was mutated: %#v", stored.Item)
	}
}

func TestGetItemRemoteDelegates(t *testing.T) {
	fx := newFacadeFixture(t)
	fx.remote.Items["remote-1"] = &media.Item{ID: "remote-1", Name: "Remote"}

	item, err := fx.facade.GetItem(context.Background(), "user-1", "remote-1")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.Name != "Remote" {
		t.Fatalf("expected remote item, got %#v", item)
	}
}

func TestGetItemsDispatch(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.seed(t, syncedMovie("movie-1", "Heat"))

	// Top-level parent returns local folders.
	result, err := fx.facade.GetItems(ctx, "user-1", api.ItemsRequest{ParentID: "localview"})
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if result.TotalRecordCount != 1 || result.Items[0].Type != "MoviesView" {
		t.Fatalf("expected local folders, got %#v", result)
	}

	// A localview parent lists local items with localized ids.
	result, err = fx.facade.GetItems(ctx, "user-1", api.ItemsRequest{ParentID: "localview:MoviesView"})
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if result.TotalRecordCount != 1 || result.Items[0].ID != "local:movie-1" {
		t.Fatalf("expected localized movie, got %#v", result)
	}

	// Excluding a local id yields an empty result without a server call.
	result, err = fx.facade.GetItems(ctx, "user-1", api.ItemsRequest{ExcludeItemIDs: []string{"local:movie-1"}})
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if result.TotalRecordCount != 0 {
		t.Fatalf("expected empty result, got %#v", result)
	}

	// Fetch by local ids resolves locally.
	result, err = fx.facade.GetItems(ctx, "user-1", api.ItemsRequest{IDs: []string{"local:movie-1"}})
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if result.TotalRecordCount != 1 || result.Items[0].Name != "Heat" {
		t.Fatalf("expected movie by id, got %#v", result)
	}

	if fx.remote.GetItemsCallCount != 0 {
		t.Fatalf("local dispatches must not hit the server, got %d calls", fx.remote.GetItemsCallCount)
	}

	// Plain requests delegate.
	if _, err := fx.facade.GetItems(ctx, "user-1", api.ItemsRequest{ParentID: "remote-parent"}); err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if fx.remote.GetItemsCallCount != 1 {
		t.Fatalf("expected remote delegation, got %d calls", fx.remote.GetItemsCallCount)
	}
}

func TestGetUserViewsAppendsLocalView(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.remote.ViewsResult = &api.QueryResult{
		Items:            []media.Item{{ID: "server-view", Name: "Movies"}},
		TotalRecordCount: 1,
	}

	// No local content: listing unchanged.
	result, err := fx.facade.GetUserViewsWithLocal(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("GetUserViewsWithLocal failed: %v", err)
	}
	if result.TotalRecordCount != 1 {
		t.Fatalf("expected server views only, got %#v", result)
	}

	fx.seed(t, syncedMovie("movie-1", "Heat"))
	result, err = fx.facade.GetUserViewsWithLocal(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("GetUserViewsWithLocal failed: %v", err)
	}
	if result.TotalRecordCount != 2 || result.Items[1].Name != api.DownloadsTitle {
		t.Fatalf("expected appended downloads view, got %#v", result)
	}
}

func TestGetPlaybackInfoLocal(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	localItem := syncedMovie("movie-1", "Heat")
	localItem.Item.MediaSources = []media.MediaSource{{
		ID:                  "source-1",
		Path:                "/data/media/Videos/Heat/Heat.mkv",
		SupportsTranscoding: true,
	}}
	fx.seed(t, localItem)

	info, err := fx.facade.GetPlaybackInfo(ctx, "local:movie-1")
	if err != nil {
		t.Fatalf("GetPlaybackInfo failed: %v", err)
	}
	if len(info.MediaSources) != 1 {
		t.Fatalf("expected one source, got %#v", info)
	}
	source := info.MediaSources[0]
	if !source.IsLocal || !source.SupportsDirectPlay || source.SupportsTranscoding || source.SupportsDirectStream {
		t.Fatalf("source not marked for direct local play: %#v", source)
	}
}

func TestGetPlaybackInfoPlainIDPrefersLocalFile(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	path := "/data/media/Videos/Heat/Heat.mkv"
	localItem := syncedMovie("movie-1", "Heat")
	localItem.LocalPath = path
	localItem.Item.MediaSources = []media.MediaSource{{ID: "source-1", Path: path}}
	fx.seed(t, localItem)

	// File missing: delegate to the server.
	fx.remote.PlaybackInfo = &api.PlaybackInfoResponse{PlaySessionID: "remote-session"}
	info, err := fx.facade.GetPlaybackInfo(ctx, "movie-1")
	if err != nil {
		t.Fatalf("GetPlaybackInfo failed: %v", err)
	}
	if info.PlaySessionID != "remote-session" {
		t.Fatalf("expected remote playback info, got %#v", info)
	}

	// File present: serve locally.
	if _, err := fx.repo.WriteFile(path, strings.NewReader("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	info, err = fx.facade.GetPlaybackInfo(ctx, "movie-1")
	if err != nil {
		t.Fatalf("GetPlaybackInfo failed: %v", err)
	}
	if len(info.MediaSources) != 1 || !info.MediaSources[0].IsLocal {
		t.Fatalf("expected local playback info, got %#v", info)
	}
}

func TestEmptyResultOperations(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	if result, err := fx.facade.GetSimilarItems(ctx, "local:x", api.ItemsRequest{}); err != nil || result.TotalRecordCount != 0 {
		t.Fatalf("GetSimilarItems: result=%#v err=%v", result, err)
	}
	if result, err := fx.facade.GetIntros(ctx, "local:x"); err != nil || result.TotalRecordCount != 0 {
		t.Fatalf("GetIntros: result=%#v err=%v", result, err)
	}
	if result, err := fx.facade.GetInstantMixFromItem(ctx, "local:x", api.ItemsRequest{}); err != nil || result.TotalRecordCount != 0 {
		t.Fatalf("GetInstantMixFromItem: result=%#v err=%v", result, err)
	}
	if result, err := fx.facade.GetThemeMedia(ctx, "user-1", "local:x"); err != nil || result.TotalRecordCount != 0 {
		t.Fatalf("GetThemeMedia: result=%#v err=%v", result, err)
	}
	if features, err := fx.facade.GetSpecialFeatures(ctx, "user-1", "local:x"); err != nil || len(features) != 0 {
		t.Fatalf("GetSpecialFeatures: result=%#v err=%v", features, err)
	}
	if result, err := fx.facade.GetNextUpEpisodes(ctx, "local:x", api.ItemsRequest{}); err != nil || result.TotalRecordCount != 0 {
		t.Fatalf("GetNextUpEpisodes: result=%#v err=%v", result, err)
	}
	if err := fx.facade.UpdateFavoriteStatus(ctx, "user-1", "local:x", true); err != nil {
		t.Fatalf("UpdateFavoriteStatus: %v", err)
	}
}

func TestReportPlaybackProgressUpdatesLocalUserData(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	localItem := syncedMovie("movie-1", "Heat")
	localItem.Item.RunTimeTicks = 1000
	fx.seed(t, localItem)

	err := fx.facade.ReportPlaybackProgress(ctx, api.PlaybackReport{ItemID: "local:movie-1", PositionTicks: 250})
	if err != nil {
		t.Fatalf("ReportPlaybackProgress failed: %v", err)
	}

	stored, err := fx.store.GetItem(ctx, "server-1", "movie-1")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if stored.Item.UserData == nil {
		t.Fatal("expected user data to be created")
	}
	if stored.Item.UserData.PlaybackPositionTicks != 250 {
		t.Fatalf("unexpected position: %d", stored.Item.UserData.PlaybackPositionTicks)
	}
	if stored.Item.UserData.PlayedPercentage == nil || *stored.Item.UserData.PlayedPercentage != 25 {
		t.Fatalf("unexpected percentage: %v", stored.Item.UserData.PlayedPercentage)
	}
	if len(fx.remote.PlaybackReports) != 0 {
		t.Fatal("local progress must not reach the server")
	}
}

func TestReportPlaybackProgressCapsPercentage(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	localItem := syncedMovie("movie-1", "Heat")
	localItem.Item.RunTimeTicks = 100
	fx.seed(t, localItem)

	if err := fx.facade.ReportPlaybackProgress(ctx, api.PlaybackReport{ItemID: "local:movie-1", PositionTicks: 500}); err != nil {
		t.Fatalf("ReportPlaybackProgress failed: %v", err)
	}
	stored, _ := fx.store.GetItem(ctx, "server-1", "movie-1")
	if *stored.Item.UserData.PlayedPercentage != 100 {
		t.Fatalf("expected capped percentage, got %v", *stored.Item.UserData.PlayedPercentage)
	}
}

func TestReportPlaybackStoppedRecordsAction(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()
	fx.seed(t, syncedMovie("movie-1", "Heat"))

	err := fx.facade.ReportPlaybackStopped(ctx, api.PlaybackReport{ItemID: "local:movie-1", PositionTicks: 750})
	if err != nil {
		t.Fatalf("ReportPlaybackStopped failed: %v", err)
	}

	actions, err := fx.store.ActionsForServer(ctx, "server-1")
	if err != nil {
		t.Fatalf("ActionsForServer failed: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected one action, got %d", len(actions))
	}
	action := actions[0]
	if action.ItemID != "movie-1" || action.Type != store.UserActionPlayed || action.PositionTicks != 750 {
		t.Fatalf("unexpected action: %#v", action)
	}
	if action.ID == "" || action.Date == 0 {
		t.Fatalf("expected id and date assigned: %#v", action)
	}
}

func TestGetItemDownloadURLLocal(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	localItem := syncedMovie("movie-1", "Heat")
	localItem.LocalPath = "/data/media/Videos/Heat/Heat.mkv"
	fx.seed(t, localItem)

	path, err := fx.facade.GetItemDownloadURL(ctx, "local:movie-1")
	if err != nil {
		t.Fatalf("GetItemDownloadURL failed: %v", err)
	}
	if path != localItem.LocalPath {
		t.Fatalf("expected local path, got %s", path)
	}
}

func timeDate(year int) time.Time {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestGetLatestOfflineItemsNewestFirst(t *testing.T) {
	fx := newFacadeFixture(t)
	ctx := context.Background()

	older := syncedMovie("old", "Old Movie")
	olderDate := timeDate(2020)
	older.Item.DateCreated = &olderDate
	newer := syncedMovie("new", "New Movie")
	newerDate := timeDate(2024)
	newer.Item.DateCreated = &newerDate
	fx.seed(t, older)
	fx.seed(t, newer)

	items, err := fx.facade.GetLatestOfflineItems(ctx, api.ItemsRequest{})
	if err != nil {
		t.Fatalf("GetLatestOfflineItems failed: %v", err)
	}
	if len(items) != 2 || items[0].Name != "New Movie" {
		t.Fatalf("expected newest first, got %#v", items)
	}
}
