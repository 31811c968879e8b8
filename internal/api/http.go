package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"satchel/internal/config"
	"satchel/internal/logging"
	"satchel/internal/media"
	"satchel/internal/store"
)

// HTTPClient talks to one media server over its REST API.
type HTTPClient struct {
	serverID      string
	serverName    string
	serverAddress string
	accessToken   string
	userID        string

	clientName string
	version    string
	deviceName string
	deviceID   string

	http   *http.Client
	logger *slog.Logger
}

// NewHTTPClient builds a REST client for one configured server.
func NewHTTPClient(cfg *config.Config, server config.Server, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HTTPClient{
		serverID:      server.ID,
		serverName:    server.Name,
		serverAddress: strings.TrimRight(server.Address, "/"),
		accessToken:   server.AccessToken,
		userID:        server.UserID,
		clientName:    cfg.Client.Name,
		version:       cfg.Client.Version,
		deviceName:    cfg.Client.DeviceName,
		deviceID:      cfg.Client.DeviceID,
		http:          &http.Client{Timeout: 30 * time.Second},
		logger:        logging.NewComponentLogger(logger, "api"),
	}
}

func (c *HTTPClient) ServerID() string    { return c.serverID }
func (c *HTTPClient) ServerName() string  { return c.serverName }
func (c *HTTPClient) UserID() string      { return c.userID }
func (c *HTTPClient) DeviceID() string    { return c.deviceID }
func (c *HTTPClient) AccessToken() string { return c.accessToken }

// GetURL composes an absolute URL for a server handler.
func (c *HTTPClient) GetURL(handler string, params url.Values) (string, error) {
	if handler == "" {
		return "", fmt.Errorf("handler name cannot be empty")
	}
	if c.serverAddress == "" {
		return "", fmt.Errorf("server address is not set")
	}

	u := c.serverAddress
	if !strings.HasPrefix(handler, "/") {
		u += "/"
	}
	u += handler
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u, nil
}

// GetScaledImageURL composes the URL for a scaled image variant.
func (c *HTTPClient) GetScaledImageURL(itemID string, opts ImageOptions) (string, error) {
	if itemID == "" {
		return "", fmt.Errorf("item id cannot be empty")
	}
	handler := fmt.Sprintf("Items/%s/Images/%s", itemID, opts.Type)
	if opts.Index > 0 {
		handler += "/" + strconv.Itoa(opts.Index)
	}

	params := url.Values{}
	if opts.Tag != "" {
		params.Set("tag", opts.Tag)
	}
	if opts.MaxWidth > 0 {
		params.Set("maxWidth", strconv.Itoa(opts.MaxWidth))
	}
	if c.accessToken != "" {
		params.Set("api_key", c.accessToken)
	}
	return c.GetURL(handler, params)
}

// GetItemDownloadURL composes the URL for downloading an item's media
// file.
func (c *HTTPClient) GetItemDownloadURL(ctx context.Context, itemID string) (string, error) {
	params := url.Values{}
	params.Set("api_key", c.accessToken)
	return c.GetURL(fmt.Sprintf("Items/%s/Download", itemID), params)
}

// GetItem fetches one item description.
func (c *HTTPClient) GetItem(ctx context.Context, userID, itemID string) (*media.Item, error) {
	if userID == "" {
		userID = c.userID
	}
	var item media.Item
	if err := c.getJSON(ctx, fmt.Sprintf("Users/%s/Items/%s", userID, itemID), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems lists items matching the request.
func (c *HTTPClient) GetItems(ctx context.Context, userID string, req ItemsRequest) (*QueryResult, error) {
	if userID == "" {
		userID = c.userID
	}
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Users/%s/Items", userID), itemsRequestParams(req), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUserViews lists the user's library views.
func (c *HTTPClient) GetUserViews(ctx context.Context, userID string) (*QueryResult, error) {
	if userID == "" {
		userID = c.userID
	}
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Users/%s/Views", userID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPlaybackInfo fetches the playable media sources for an item.
func (c *HTTPClient) GetPlaybackInfo(ctx context.Context, itemID string) (*PlaybackInfoResponse, error) {
	params := url.Values{}
	params.Set("UserId", c.userID)
	var result PlaybackInfoResponse
	if err := c.getJSON(ctx, fmt.Sprintf("Items/%s/PlaybackInfo", itemID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNextUpEpisodes lists the next unwatched episodes for a series.
func (c *HTTPClient) GetNextUpEpisodes(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error) {
	params := itemsRequestParams(req)
	if seriesID != "" {
		params.Set("SeriesId", seriesID)
	}
	params.Set("UserId", c.userID)
	var result QueryResult
	if err := c.getJSON(ctx, "Shows/NextUp", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSeasons lists a series' seasons.
func (c *HTTPClient) GetSeasons(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error) {
	params := itemsRequestParams(req)
	params.Set("UserId", c.userID)
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Shows/%s/Seasons", seriesID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEpisodes lists a series' episodes.
func (c *HTTPClient) GetEpisodes(ctx context.Context, seriesID string, req ItemsRequest) (*QueryResult, error) {
	params := itemsRequestParams(req)
	params.Set("UserId", c.userID)
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Shows/%s/Episodes", seriesID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetThemeMedia fetches theme songs and videos for an item.
func (c *HTTPClient) GetThemeMedia(ctx context.Context, userID, itemID string) (*QueryResult, error) {
	if userID == "" {
		userID = c.userID
	}
	params := url.Values{}
	params.Set("UserId", userID)
	params.Set("InheritFromParent", "true")
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Items/%s/ThemeMedia", itemID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSpecialFeatures lists an item's special features.
func (c *HTTPClient) GetSpecialFeatures(ctx context.Context, userID, itemID string) ([]media.Item, error) {
	if userID == "" {
		userID = c.userID
	}
	var items []media.Item
	if err := c.getJSON(ctx, fmt.Sprintf("Users/%s/Items/%s/SpecialFeatures", userID, itemID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetSimilarItems lists items similar to the given one.
func (c *HTTPClient) GetSimilarItems(ctx context.Context, itemID string, req ItemsRequest) (*QueryResult, error) {
	params := itemsRequestParams(req)
	params.Set("UserId", c.userID)
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Items/%s/Similar", itemID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetIntros lists the intros to play before an item.
func (c *HTTPClient) GetIntros(ctx context.Context, itemID string) (*QueryResult, error) {
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Users/%s/Items/%s/Intros", c.userID, itemID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetInstantMixFromItem builds an instant mix seeded by an item.
func (c *HTTPClient) GetInstantMixFromItem(ctx context.Context, itemID string, req ItemsRequest) (*QueryResult, error) {
	params := itemsRequestParams(req)
	params.Set("UserId", c.userID)
	var result QueryResult
	if err := c.getJSON(ctx, fmt.Sprintf("Items/%s/InstantMix", itemID), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateFavoriteStatus marks or unmarks an item as a favorite.
func (c *HTTPClient) UpdateFavoriteStatus(ctx context.Context, userID, itemID string, isFavorite bool) error {
	if userID == "" {
		userID = c.userID
	}
	handler := fmt.Sprintf("Users/%s/FavoriteItems/%s", userID, itemID)
	method := http.MethodPost
	if !isFavorite {
		method = http.MethodDelete
	}
	return c.send(ctx, method, handler, nil, nil, nil)
}

// ReportPlaybackStart reports playback starting.
func (c *HTTPClient) ReportPlaybackStart(ctx context.Context, report PlaybackReport) error {
	return c.send(ctx, http.MethodPost, "Sessions/Playing", nil, report, nil)
}

// ReportPlaybackProgress reports a playback position update.
func (c *HTTPClient) ReportPlaybackProgress(ctx context.Context, report PlaybackReport) error {
	return c.send(ctx, http.MethodPost, "Sessions/Playing/Progress", nil, report, nil)
}

// ReportPlaybackStopped reports playback ending.
func (c *HTTPClient) ReportPlaybackStopped(ctx context.Context, report PlaybackReport) error {
	return c.send(ctx, http.MethodPost, "Sessions/Playing/Stopped", nil, report, nil)
}

// GetReadySyncItems fetches the download assignments ready for this
// device.
func (c *HTTPClient) GetReadySyncItems(ctx context.Context, deviceID string) ([]SyncJobItem, error) {
	params := url.Values{}
	params.Set("TargetId", deviceID)
	var result struct {
		Items []SyncJobItem `json:"Items"`
	}
	if err := c.getJSON(ctx, "Sync/Items/Ready", params, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// ReportSyncJobItemTransferred marks a sync job item as fully
// transferred to this device.
func (c *HTTPClient) ReportSyncJobItemTransferred(ctx context.Context, syncJobItemID string) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("Sync/JobItems/%s/Transferred", syncJobItemID), nil, nil, nil)
}

// wireAction is the server's casing for an uploaded user action.
type wireAction struct {
	ID            string `json:"Id"`
	ServerID      string `json:"ServerId"`
	UserID        string `json:"UserId,omitempty"`
	ItemID        string `json:"ItemId"`
	Type          string `json:"Type"`
	Date          int64  `json:"Date"`
	PositionTicks int64  `json:"PositionTicks"`
}

// ReportOfflineActions uploads playback actions recorded while offline.
func (c *HTTPClient) ReportOfflineActions(ctx context.Context, actions []*store.UserAction) error {
	wire := make([]wireAction, 0, len(actions))
	for _, action := range actions {
		wire = append(wire, wireAction{
			ID:            action.ID,
			ServerID:      action.ServerID,
			UserID:        action.UserID,
			ItemID:        action.ItemID,
			Type:          action.Type,
			Date:          action.Date,
			PositionTicks: action.PositionTicks,
		})
	}
	return c.send(ctx, http.MethodPost, "Sync/OfflineActions", nil, wire, nil)
}

// SyncData reports completed items and returns the server's removal
// verdict.
func (c *HTTPClient) SyncData(ctx context.Context, req SyncDataRequest) (*SyncDataResponse, error) {
	var result SyncDataResponse
	if err := c.send(ctx, http.MethodPost, "Sync/Data", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func itemsRequestParams(req ItemsRequest) url.Values {
	params := url.Values{}
	setCSV := func(key string, values []string) {
		if len(values) > 0 {
			params.Set(key, strings.Join(values, ","))
		}
	}
	if req.ParentID != "" {
		params.Set("ParentId", req.ParentID)
	}
	if req.SeriesID != "" {
		params.Set("SeriesId", req.SeriesID)
	}
	if req.SeasonID != "" {
		params.Set("SeasonId", req.SeasonID)
	}
	setCSV("AlbumIds", req.AlbumIDs)
	setCSV("Ids", req.IDs)
	setCSV("ExcludeItemIds", req.ExcludeItemIDs)
	setCSV("IncludeItemTypes", req.IncludeItemTypes)
	setCSV("Filters", req.Filters)
	setCSV("MediaTypes", req.MediaTypes)
	if req.Recursive {
		params.Set("Recursive", "true")
	}
	if req.SortBy != "" {
		params.Set("SortBy", req.SortBy)
	}
	if req.SortOrder != "" {
		params.Set("SortOrder", req.SortOrder)
	}
	if req.Limit > 0 {
		params.Set("Limit", strconv.Itoa(req.Limit))
	}
	return params
}

func (c *HTTPClient) getJSON(ctx context.Context, handler string, params url.Values, out any) error {
	return c.send(ctx, http.MethodGet, handler, params, nil, out)
}

func (c *HTTPClient) send(ctx context.Context, method, handler string, params url.Values, body, out any) error {
	u, err := c.GetURL(handler, params)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Emby-Authorization", c.authHeader())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, handler, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: server returned %s", method, handler, resp.Status)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", handler, err)
	}
	return nil
}

func (c *HTTPClient) authHeader() string {
	values := []string{
		fmt.Sprintf("MediaBrowser Client=%q", c.clientName),
		fmt.Sprintf("Device=%q", c.deviceName),
		fmt.Sprintf("DeviceId=%q", c.deviceID),
		fmt.Sprintf("Version=%q", c.version),
	}
	if c.accessToken != "" {
		values = append(values, fmt.Sprintf("Token=%q", c.accessToken))
	}
	return strings.Join(values, ", ")
}

var _ Client = (*HTTPClient)(nil)
