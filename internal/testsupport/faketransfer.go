package testsupport

import (
	"context"
	"strings"
	"sync"

	"satchel/internal/filerepo"
	"satchel/internal/store"
	"satchel/internal/transfer"
)

// FakeTransferManager is an in-memory transfer.Manager. Media downloads
// materialize a file of FileSize bytes in the repository so status
// reconciliation sees a real file.
type FakeTransferManager struct {
	Repo *filerepo.Repository

	// Complete controls whether DownloadFile reports an immediately
	// finished transfer.
	Complete bool
	// FileSize is the size of the file written per media download.
	FileSize int64
	// InFlight is returned by DownloadCount.
	InFlight int
	// Background is returned by EnableBackgroundCompletion.
	Background bool

	DownloadErr error
	ImageErr    error
	SubtitleErr error

	mu            sync.Mutex
	MediaURLs     []string
	ImagePaths    []string
	SubtitlePaths []string
	QueuedPaths   map[string]bool
	ResyncCalls   int
}

// NewFakeTransferManager builds a fake over the given repository with
// immediately completing downloads.
func NewFakeTransferManager(repo *filerepo.Repository) *FakeTransferManager {
	return &FakeTransferManager{
		Repo:        repo,
		Complete:    true,
		FileSize:    1024,
		QueuedPaths: make(map[string]bool),
	}
}

func (f *FakeTransferManager) DownloadFile(ctx context.Context, url string, item *store.LocalItem) (*transfer.DownloadResult, error) {
	f.mu.Lock()
	f.MediaURLs = append(f.MediaURLs, url)
	f.mu.Unlock()
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}

	path := f.Repo.MediaPath(item.LocalPathParts...)
	if f.FileSize > 0 {
		content := strings.NewReader(strings.Repeat("x", int(f.FileSize)))
		if _, err := f.Repo.WriteFile(path, content); err != nil {
			return nil, err
		}
	}
	return &transfer.DownloadResult{Path: path, Complete: f.Complete}, nil
}

func (f *FakeTransferManager) DownloadImage(ctx context.Context, url string, pathParts []string) (string, error) {
	if f.ImageErr != nil {
		return "", f.ImageErr
	}
	path := f.Repo.MetadataPath(pathParts...)
	if _, err := f.Repo.WriteFile(path, strings.NewReader("image")); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.ImagePaths = append(f.ImagePaths, path)
	f.mu.Unlock()
	return path, nil
}

func (f *FakeTransferManager) DownloadSubtitles(ctx context.Context, url, filePath string) (string, error) {
	if f.SubtitleErr != nil {
		return "", f.SubtitleErr
	}
	if _, err := f.Repo.WriteFile(filePath, strings.NewReader("subtitle")); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.SubtitlePaths = append(f.SubtitlePaths, filePath)
	f.mu.Unlock()
	return filePath, nil
}

func (f *FakeTransferManager) ResyncTransfers(ctx context.Context) error {
	f.mu.Lock()
	f.ResyncCalls++
	f.mu.Unlock()
	return nil
}

func (f *FakeTransferManager) DownloadCount(ctx context.Context) (int, error) {
	return f.InFlight, nil
}

func (f *FakeTransferManager) IsDownloadFileInQueue(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.QueuedPaths[path]
}

func (f *FakeTransferManager) EnableBackgroundCompletion() bool {
	return f.Background
}

var _ transfer.Manager = (*FakeTransferManager)(nil)
