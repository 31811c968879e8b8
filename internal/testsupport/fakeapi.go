package testsupport

import (
	"context"
	"fmt"
	"net/url"

	"satchel/internal/api"
	"satchel/internal/media"
	"satchel/internal/store"
)

// FakeAPIClient is a canned api.Client for tests. Zero values behave
// like an empty server; tests populate the response fields they need
// and inspect the recorded calls afterwards.
type FakeAPIClient struct {
	Server string
	User   string
	Device string
	Token  string
	Addr   string

	// Canned responses.
	Items         map[string]*media.Item
	ItemsResult   *api.QueryResult
	ViewsResult   *api.QueryResult
	ReadyItems    []api.SyncJobItem
	SyncDataReply *api.SyncDataResponse
	PlaybackInfo  *api.PlaybackInfoResponse

	// Injected failures.
	GetItemErr        error
	ReadyItemsErr     error
	TransferredErr    error
	ReportActionsErr  error
	SyncDataErr       error
	GetItemsCallCount int

	// Recorded calls.
	TransferredIDs   []string
	ReportedActions  [][]*store.UserAction
	SyncDataRequests []api.SyncDataRequest
	PlaybackReports  []api.PlaybackReport
	FetchedItemIDs   []string
}

// NewFakeAPIClient returns a fake client bound to a server identity.
func NewFakeAPIClient(serverID string) *FakeAPIClient {
	return &FakeAPIClient{
		Server: serverID,
		User:   "user-1",
		Device: "test-device",
		Token:  "token-1",
		Addr:   "http://example.test",
		Items:  make(map[string]*media.Item),
	}
}

func (f *FakeAPIClient) ServerID() string    { return f.Server }
func (f *FakeAPIClient) ServerName() string  { return "Fake Server" }
func (f *FakeAPIClient) UserID() string      { return f.User }
func (f *FakeAPIClient) DeviceID() string    { return f.Device }
func (f *FakeAPIClient) AccessToken() string { return f.Token }

func (f *FakeAPIClient) GetURL(handler string, params url.Values) (string, error) {
	u := f.Addr + "/" + handler
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u, nil
}

func (f *FakeAPIClient) GetScaledImageURL(itemID string, opts api.ImageOptions) (string, error) {
	return fmt.Sprintf("%s/Items/%s/Images/%s?tag=%s", f.Addr, itemID, opts.Type, opts.Tag), nil
}

func (f *FakeAPIClient) GetItemDownloadURL(ctx context.Context, itemID string) (string, error) {
	return f.Addr + "/Items/" + itemID + "/Download", nil
}

func (f *FakeAPIClient) GetItem(ctx context.Context, userID, itemID string) (*media.Item, error) {
	if f.GetItemErr != nil {
		return nil, f.GetItemErr
	}
	f.FetchedItemIDs = append(f.FetchedItemIDs, itemID)
	item, ok := f.Items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s not found", itemID)
	}
	cp := *item
	return &cp, nil
}

func (f *FakeAPIClient) GetItems(ctx context.Context, userID string, req api.ItemsRequest) (*api.QueryResult, error) {
	f.GetItemsCallCount++
	if f.ItemsResult != nil {
		return f.ItemsResult, nil
	}
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetUserViews(ctx context.Context, userID string) (*api.QueryResult, error) {
	if f.ViewsResult != nil {
		return f.ViewsResult, nil
	}
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetPlaybackInfo(ctx context.Context, itemID string) (*api.PlaybackInfoResponse, error) {
	if f.PlaybackInfo != nil {
		return f.PlaybackInfo, nil
	}
	return &api.PlaybackInfoResponse{}, nil
}

func (f *FakeAPIClient) GetNextUpEpisodes(ctx context.Context, seriesID string, req api.ItemsRequest) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetSeasons(ctx context.Context, seriesID string, req api.ItemsRequest) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetEpisodes(ctx context.Context, seriesID string, req api.ItemsRequest) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetThemeMedia(ctx context.Context, userID, itemID string) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetSpecialFeatures(ctx context.Context, userID, itemID string) ([]media.Item, error) {
	return nil, nil
}

func (f *FakeAPIClient) GetSimilarItems(ctx context.Context, itemID string, req api.ItemsRequest) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetIntros(ctx context.Context, itemID string) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) GetInstantMixFromItem(ctx context.Context, itemID string, req api.ItemsRequest) (*api.QueryResult, error) {
	return api.EmptyResult(), nil
}

func (f *FakeAPIClient) UpdateFavoriteStatus(ctx context.Context, userID, itemID string, isFavorite bool) error {
	return nil
}

func (f *FakeAPIClient) ReportPlaybackStart(ctx context.Context, report api.PlaybackReport) error {
	f.PlaybackReports = append(f.PlaybackReports, report)
	return nil
}

func (f *FakeAPIClient) ReportPlaybackProgress(ctx context.Context, report api.PlaybackReport) error {
	f.PlaybackReports = append(f.PlaybackReports, report)
	return nil
}

func (f *FakeAPIClient) ReportPlaybackStopped(ctx context.Context, report api.PlaybackReport) error {
	f.PlaybackReports = append(f.PlaybackReports, report)
	return nil
}

func (f *FakeAPIClient) GetReadySyncItems(ctx context.Context, deviceID string) ([]api.SyncJobItem, error) {
	if f.ReadyItemsErr != nil {
		return nil, f.ReadyItemsErr
	}
	return f.ReadyItems, nil
}

func (f *FakeAPIClient) ReportSyncJobItemTransferred(ctx context.Context, syncJobItemID string) error {
	if f.TransferredErr != nil {
		return f.TransferredErr
	}
	f.TransferredIDs = append(f.TransferredIDs, syncJobItemID)
	return nil
}

func (f *FakeAPIClient) ReportOfflineActions(ctx context.Context, actions []*store.UserAction) error {
	f.ReportedActions = append(f.ReportedActions, actions)
	return f.ReportActionsErr
}

func (f *FakeAPIClient) SyncData(ctx context.Context, req api.SyncDataRequest) (*api.SyncDataResponse, error) {
	if f.SyncDataErr != nil {
		return nil, f.SyncDataErr
	}
	f.SyncDataRequests = append(f.SyncDataRequests, req)
	if f.SyncDataReply != nil {
		return f.SyncDataReply, nil
	}
	return &api.SyncDataResponse{}, nil
}

var _ api.Client = (*FakeAPIClient)(nil)
