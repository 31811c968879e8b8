// Package sync drives the offline media synchronization passes: per
// server, a fixed sequence of phases reconciles local storage with the
// server's sync jobs.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"satchel/internal/api"
	"satchel/internal/assets"
	"satchel/internal/localid"
	"satchel/internal/logging"
	"satchel/internal/media"
	"satchel/internal/store"
)

// Options tune a sync pass.
type Options struct {
	// CheckFileExistence verifies completed items still have their
	// media file on disk before anything else runs.
	CheckFileExistence bool
	// ProgressOnly short-circuits the pass after status reporting when
	// more than ProgressOnlyThreshold transfers are still in flight.
	ProgressOnly bool
	// MaxNewDownloads caps how many new items one pass may start.
	MaxNewDownloads int
	// ProgressOnlyThreshold is the in-flight transfer count above which
	// a progress-only pass stops early.
	ProgressOnlyThreshold int
}

// DefaultOptions returns the standard backpressure knobs.
func DefaultOptions() Options {
	return Options{
		MaxNewDownloads:       10,
		ProgressOnlyThreshold: 2,
	}
}

// MediaSync runs the phase sequence for one server. Phases run strictly
// in order; within a phase, items are processed one at a time.
type MediaSync struct {
	assets *assets.Manager
	logger *slog.Logger
}

// NewMediaSync builds a media sync engine over the local asset manager.
func NewMediaSync(assetManager *assets.Manager, logger *slog.Logger) *MediaSync {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MediaSync{
		assets: assetManager,
		logger: logging.NewComponentLogger(logger, "mediasync"),
	}
}

// Sync runs one full pass against a server.
func (s *MediaSync) Sync(ctx context.Context, client api.Client, opts Options) error {
	serverID := client.ServerID()
	s.logger.Info("starting sync pass", logging.String("server_id", serverID))

	if err := s.checkLocalFileExistence(ctx, serverID, opts); err != nil {
		return fmt.Errorf("check local files: %w", err)
	}
	if err := s.processDownloadStatus(ctx, client, serverID); err != nil {
		return fmt.Errorf("process download status: %w", err)
	}

	downloadCount, err := s.assets.DownloadCount(ctx)
	if err != nil {
		return fmt.Errorf("download count: %w", err)
	}
	if opts.ProgressOnly && downloadCount > opts.ProgressOnlyThreshold {
		s.logger.Info("progress-only pass, transfers still running",
			logging.Int("in_flight", downloadCount))
		return nil
	}

	if err := s.reportOfflineActions(ctx, client, serverID); err != nil {
		return fmt.Errorf("report offline actions: %w", err)
	}
	if err := s.getNewMedia(ctx, client, opts, downloadCount); err != nil {
		return fmt.Errorf("get new media: %w", err)
	}
	if err := s.syncData(ctx, client, serverID); err != nil {
		return fmt.Errorf("sync data: %w", err)
	}

	s.logger.Info("sync pass complete", logging.String("server_id", serverID))
	return nil
}

// checkLocalFileExistence drops completed items whose media file has
// vanished from disk.
func (s *MediaSync) checkLocalFileExistence(ctx context.Context, serverID string, opts Options) error {
	if !opts.CheckFileExistence {
		return nil
	}

	items, err := s.assets.ServerItems(ctx, serverID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if !item.Status.IsComplete() || item.LocalPath == "" {
			continue
		}
		exists, err := s.assets.FileExists(item.LocalPath)
		if err != nil || exists {
			continue
		}
		s.logger.Info("media file missing, removing item",
			logging.String("item_id", item.ItemID))
		if err := s.assets.RemoveLocalItem(ctx, serverID, item.ID); err != nil {
			s.logger.Warn("failed to remove item", logging.Error(err))
		}
	}
	return nil
}

// processDownloadStatus reconciles in-progress transfers and reports
// finished ones to the server.
func (s *MediaSync) processDownloadStatus(ctx context.Context, client api.Client, serverID string) error {
	if err := s.assets.ResyncTransfers(ctx); err != nil {
		return err
	}

	items, err := s.assets.ServerItems(ctx, serverID)
	if err != nil {
		return err
	}

	reported := 0
	for _, item := range items {
		if !item.Status.InProgress() {
			continue
		}
		s.reportTransfer(ctx, client, item)
		reported++
	}
	s.logger.Debug("download status processed", logging.Int("reported", reported))
	return nil
}

// reportTransfer inspects one in-progress item's file and settles its
// status. A zero-size file still queued is left alone; a zero-size file
// with no pending transfer is a broken download and gets deleted.
func (s *MediaSync) reportTransfer(ctx context.Context, client api.Client, item *store.LocalItem) {
	size, err := s.assets.ItemFileSize(item.LocalPath)
	if err != nil {
		s.logger.Warn("cannot stat media file, removing item",
			logging.String("item_id", item.ItemID),
			logging.Error(err))
		if removeErr := s.assets.RemoveLocalItem(ctx, item.ServerID, item.ID); removeErr != nil {
			s.logger.Warn("failed to remove item", logging.Error(removeErr))
		}
		return
	}

	if size > 0 {
		if err := client.ReportSyncJobItemTransferred(ctx, item.SyncJobItemID); err != nil {
			s.logger.Error("failed to report transfer",
				logging.String("sync_job_item_id", item.SyncJobItemID),
				logging.Error(err))
			item.Status = store.StatusError
		} else {
			item.Status = store.StatusSynced
		}
		if err := s.assets.AddOrUpdateLocalItem(ctx, item); err != nil {
			s.logger.Warn("failed to persist item status", logging.Error(err))
		}
		return
	}

	if s.assets.IsDownloadFileInQueue(item.LocalPath) {
		// Still transferring, check again next pass.
		return
	}

	s.logger.Info("empty file with no pending transfer, removing item",
		logging.String("item_id", item.ItemID))
	if err := s.assets.RemoveLocalItem(ctx, item.ServerID, item.ID); err != nil {
		s.logger.Warn("failed to remove item", logging.Error(err))
	}
}

// reportOfflineActions uploads recorded playback actions. Actions are
// deleted even when the upload fails: a poisoned action payload must
// not wedge every future pass.
func (s *MediaSync) reportOfflineActions(ctx context.Context, client api.Client, serverID string) error {
	actions, err := s.assets.UserActions(ctx, serverID)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	if err := client.ReportOfflineActions(ctx, actions); err != nil {
		s.logger.Error("failed to report offline actions", logging.Error(err))
	}
	return s.assets.DeleteUserActions(ctx, actions)
}

// getNewMedia pulls the server's ready sync job items and downloads up
// to the per-pass cap, counting transfers already in flight.
func (s *MediaSync) getNewMedia(ctx context.Context, client api.Client, opts Options, downloadCount int) error {
	jobItems, err := client.GetReadySyncItems(ctx, client.DeviceID())
	if err != nil {
		return err
	}

	current := downloadCount
	for i := range jobItems {
		if opts.MaxNewDownloads > 0 && current >= opts.MaxNewDownloads {
			s.logger.Info("download cap reached, deferring remaining items",
				logging.Int("deferred", len(jobItems)-i))
			break
		}
		current++
		if err := s.getNewItem(ctx, client, &jobItems[i]); err != nil {
			s.logger.Error("failed to fetch new item", logging.Error(err))
		}
	}
	return nil
}

// getNewItem downloads one assigned item. Re-assignments of an item
// already present re-run the post-download enrichment when transfers
// can complete in the background, and otherwise restart the download.
func (s *MediaSync) getNewItem(ctx context.Context, client api.Client, jobItem *api.SyncJobItem) error {
	if jobItem.Item == nil {
		return fmt.Errorf("sync job item %s has no item payload", jobItem.SyncJobItemID)
	}
	libraryItem := *jobItem.Item
	if libraryItem.ID == "" || libraryItem.ServerID == "" {
		return fmt.Errorf("sync job item %s is missing identifiers", jobItem.SyncJobItemID)
	}

	existing, err := s.assets.GetLocalItem(ctx, libraryItem.ServerID, libraryItem.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status != store.StatusError {
		if s.assets.EnableBackgroundCompletion() {
			return s.afterMediaDownloaded(ctx, client, jobItem, existing)
		}
	}

	libraryItem.ScrubForOffline()

	localItem := newLocalItem(&libraryItem, jobItem.SyncJobItemID)
	localItem.Status = store.StatusQueued

	return s.downloadMedia(ctx, client, jobItem, localItem)
}

func newLocalItem(libraryItem *media.Item, syncJobItemID string) *store.LocalItem {
	return &store.LocalItem{
		ServerID:      libraryItem.ServerID,
		ID:            libraryItem.ID,
		ItemID:        libraryItem.ID,
		Item:          *libraryItem,
		SyncJobItemID: syncJobItemID,
	}
}

// downloadMedia fetches the item's media file and persists the outcome.
// Download or enrichment failures leave the item queued for the next
// pass rather than failing the phase.
func (s *MediaSync) downloadMedia(ctx context.Context, client api.Client, jobItem *api.SyncJobItem, localItem *store.LocalItem) error {
	params := url.Values{}
	params.Set("api_key", client.AccessToken())
	downloadURL, err := client.GetURL(fmt.Sprintf("Sync/JobItems/%s/File", jobItem.SyncJobItemID), params)
	if err != nil {
		return err
	}

	if err := s.ensureLocalPathParts(localItem, jobItem); err != nil {
		return err
	}

	result, err := s.assets.DownloadFile(ctx, downloadURL, localItem)
	if err != nil {
		s.logger.Error("media download failed",
			logging.String("item_id", localItem.ItemID),
			logging.Error(err))
		return nil
	}

	if result.Path != "" {
		for i := range localItem.Item.MediaSources {
			localItem.Item.MediaSources[i].Path = result.Path
			localItem.Item.MediaSources[i].Protocol = media.ProtocolFile
		}
	}
	localItem.LocalPath = result.Path

	if err := s.afterMediaDownloaded(ctx, client, jobItem, localItem); err != nil {
		s.logger.Error("post-download enrichment failed",
			logging.String("item_id", localItem.ItemID),
			logging.Error(err))
		return nil
	}

	if result.Complete {
		localItem.Status = store.StatusSynced
		s.reportTransfer(ctx, client, localItem)
		return nil
	}

	localItem.Status = store.StatusTransferring
	return s.assets.AddOrUpdateLocalItem(ctx, localItem)
}

func (s *MediaSync) ensureLocalPathParts(localItem *store.LocalItem, jobItem *api.SyncJobItem) error {
	if len(localItem.LocalPathParts) > 0 {
		return nil
	}
	fileName, err := assets.LocalFileName(&localItem.Item, jobItem.OriginalFileName)
	if err != nil {
		return err
	}
	localItem.LocalPathParts = append(assets.DirectoryPath(&localItem.Item), fileName)
	return nil
}

// afterMediaDownloaded fetches images, parent containers, and
// subtitles for a downloaded item.
func (s *MediaSync) afterMediaDownloaded(ctx context.Context, client api.Client, jobItem *api.SyncJobItem, localItem *store.LocalItem) error {
	if err := s.getImages(ctx, client, localItem); err != nil {
		return err
	}
	if err := s.downloadParentItems(ctx, client, localItem); err != nil {
		return err
	}
	return s.getSubtitles(ctx, client, jobItem, localItem)
}

// imageRef pairs an owning item with one of its image tags.
type imageRef struct {
	itemID    string
	tag       string
	imageType media.ImageType
}

// getImages downloads every known image variant for an item and its
// parent owners. Each image is best-effort.
func (s *MediaSync) getImages(ctx context.Context, client api.Client, localItem *store.LocalItem) error {
	item := &localItem.Item

	refs := []imageRef{
		{item.ID, item.ImageTag(media.ImagePrimary), media.ImagePrimary},
		{item.ID, item.ImageTag(media.ImageLogo), media.ImageLogo},
		{item.ID, item.ImageTag(media.ImageArt), media.ImageArt},
		{item.ID, item.ImageTag(media.ImageBanner), media.ImageBanner},
		{item.ID, item.ImageTag(media.ImageThumb), media.ImageThumb},
		{item.SeriesID, item.SeriesPrimaryImageTag, media.ImagePrimary},
		{item.SeriesID, item.SeriesThumbImageTag, media.ImageThumb},
		{item.SeasonID, item.SeasonPrimaryImageTag, media.ImagePrimary},
		{item.AlbumID, item.AlbumPrimaryImageTag, media.ImagePrimary},
		{item.ParentThumbItemID, item.ParentThumbImageTag, media.ImageThumb},
		{item.ParentPrimaryImageItemID, item.ParentPrimaryImageTag, media.ImagePrimary},
	}

	for _, ref := range refs {
		if ref.itemID == "" || ref.tag == "" {
			continue
		}
		s.downloadImage(ctx, client, ref)
	}

	return s.assets.AddOrUpdateLocalItem(ctx, localItem)
}

// downloadImage fetches one image variant unless it is already stored.
func (s *MediaSync) downloadImage(ctx context.Context, client api.Client, ref imageRef) {
	if s.assets.HasImage(ref.itemID, ref.imageType, 0) {
		return
	}

	imageURL, err := client.GetScaledImageURL(ref.itemID, api.ImageOptions{
		Tag:      ref.tag,
		Type:     ref.imageType,
		MaxWidth: 400,
	})
	if err != nil {
		s.logger.Warn("cannot compose image url", logging.Error(err))
		return
	}
	if _, err := s.assets.DownloadImage(ctx, imageURL, ref.itemID, ref.imageType, 0); err != nil {
		s.logger.Warn("image download failed",
			logging.String("item_id", ref.itemID),
			logging.String("image_type", string(ref.imageType)),
			logging.Error(err))
	}
}

// downloadParentItems persists scrubbed container records so series,
// seasons, and albums are browsable offline. The season's primary
// image tag is propagated onto the child for thumbnail use.
func (s *MediaSync) downloadParentItems(ctx context.Context, client api.Client, localItem *store.LocalItem) error {
	item := &localItem.Item

	if item.SeriesID != "" {
		if _, err := s.downloadItem(ctx, client, item.SeriesID); err != nil {
			return err
		}
	}
	if item.SeasonID != "" {
		seasonItem, err := s.downloadItem(ctx, client, item.SeasonID)
		if err != nil {
			return err
		}
		if seasonItem != nil {
			item.SeasonPrimaryImageTag = seasonItem.Item.ImageTag(media.ImagePrimary)
		}
	}
	if item.AlbumID != "" {
		if _, err := s.downloadItem(ctx, client, item.AlbumID); err != nil {
			return err
		}
	}
	return nil
}

// downloadItem fetches and stores a scrubbed container record. A store
// failure is logged and yields nil rather than aborting the caller.
func (s *MediaSync) downloadItem(ctx context.Context, client api.Client, itemID string) (*store.LocalItem, error) {
	downloaded, err := client.GetItem(ctx, client.UserID(), localid.Strip(itemID))
	if err != nil {
		return nil, err
	}

	downloaded.ScrubContainer()

	localItem := newLocalItem(downloaded, "")
	localItem.Status = store.StatusSynced
	if err := s.assets.AddOrUpdateLocalItem(ctx, localItem); err != nil {
		s.logger.Error("failed to store container item",
			logging.String("item_id", itemID),
			logging.Error(err))
		return nil, nil
	}
	return localItem, nil
}

// getSubtitles downloads external subtitle sidecars and rewrites their
// streams to local paths. Each file is best-effort.
func (s *MediaSync) getSubtitles(ctx context.Context, client api.Client, jobItem *api.SyncJobItem, localItem *store.LocalItem) error {
	if len(localItem.Item.MediaSources) == 0 {
		s.logger.Debug("no media source info, skipping subtitles",
			logging.String("item_id", localItem.ItemID))
		return nil
	}

	mediaSource := &localItem.Item.MediaSources[0]
	for _, file := range jobItem.AdditionalFiles {
		if file.Type != api.AdditionalFileSubtitles {
			continue
		}
		if err := s.getItemSubtitle(ctx, client, jobItem, localItem, mediaSource, file); err != nil {
			s.logger.Warn("subtitle download failed",
				logging.String("name", file.Name),
				logging.Error(err))
		}
	}
	return nil
}

func (s *MediaSync) getItemSubtitle(ctx context.Context, client api.Client, jobItem *api.SyncJobItem, localItem *store.LocalItem, mediaSource *media.MediaSource, file api.AdditionalFile) error {
	var subtitleStream *media.MediaStream
	for i := range mediaSource.MediaStreams {
		stream := &mediaSource.MediaStreams[i]
		if stream.Type == media.StreamTypeSubtitle && stream.Index == file.Index {
			subtitleStream = stream
			break
		}
	}
	if subtitleStream == nil {
		return fmt.Errorf("no subtitle stream matches index %d", file.Index)
	}

	params := url.Values{}
	params.Set("Name", file.Name)
	params.Set("api_key", client.AccessToken())
	subtitleURL, err := client.GetURL(fmt.Sprintf("Sync/JobItems/%s/AdditionalFiles", jobItem.SyncJobItemID), params)
	if err != nil {
		return err
	}

	fileName := assets.SubtitleSaveFileName(localItem, jobItem.OriginalFileName, subtitleStream.Language, subtitleStream.IsForced, subtitleStream.Codec)
	savedPath, err := s.assets.DownloadSubtitles(ctx, subtitleURL, fileName)
	if err != nil {
		return err
	}

	subtitleStream.Path = savedPath
	subtitleStream.DeliveryMethod = media.DeliveryMethodExternal
	return s.assets.AddOrUpdateLocalItem(ctx, localItem)
}

// syncData reports completed items and applies the server's removal
// verdict, then prunes orphaned containers.
func (s *MediaSync) syncData(ctx context.Context, client api.Client, serverID string) error {
	items, err := s.assets.ServerItems(ctx, serverID)
	if err != nil {
		return err
	}

	// Containers are stored locally for navigation only; the server has
	// no sync job for them, so reporting their ids would invite a
	// removal verdict against records that are still needed.
	var completedIDs []string
	for _, item := range items {
		if media.IsContainerType(item.Item.Type) {
			continue
		}
		if item.Status.IsComplete() {
			completedIDs = append(completedIDs, item.ItemID)
		}
	}

	result, err := client.SyncData(ctx, api.SyncDataRequest{
		TargetID:     client.DeviceID(),
		LocalItemIDs: completedIDs,
	})
	if err != nil {
		return err
	}

	for _, itemID := range result.ItemIDsToRemove {
		s.logger.Info("server requested removal", logging.String("item_id", itemID))
		if err := s.assets.RemoveLocalItem(ctx, serverID, itemID); err != nil {
			s.logger.Warn("failed to remove item", logging.Error(err))
		}
	}

	return s.assets.RemoveObsoleteContainerItems(ctx, serverID)
}
