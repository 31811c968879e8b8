package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"satchel/internal/filerepo"
	"satchel/internal/logging"
	"satchel/internal/store"
)

const defaultRetryAttempts = 3

// HTTPManager downloads files inline over HTTP. Transfers finish before
// DownloadFile returns, so background completion is never advertised.
type HTTPManager struct {
	repo    *filerepo.Repository
	client  *http.Client
	logger  *slog.Logger
	retries uint

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// HTTPOption customizes an HTTPManager.
type HTTPOption func(*HTTPManager)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(m *HTTPManager) {
		m.client = client
	}
}

// WithTimeout sets the per-download timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(m *HTTPManager) {
		if timeout > 0 {
			m.client.Timeout = timeout
		}
	}
}

// WithRetryAttempts sets how many times a failed download is retried.
func WithRetryAttempts(attempts uint) HTTPOption {
	return func(m *HTTPManager) {
		if attempts > 0 {
			m.retries = attempts
		}
	}
}

// NewHTTPManager builds a transfer manager writing through the given
// repository.
func NewHTTPManager(repo *filerepo.Repository, logger *slog.Logger, opts ...HTTPOption) *HTTPManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	manager := &HTTPManager{
		repo:     repo,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   logging.NewComponentLogger(logger, "transfer"),
		retries:  defaultRetryAttempts,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// DownloadFile fetches the item's media file to its local path.
func (m *HTTPManager) DownloadFile(ctx context.Context, url string, item *store.LocalItem) (*DownloadResult, error) {
	if item == nil {
		return nil, fmt.Errorf("download file: item is nil")
	}
	if len(item.LocalPathParts) == 0 {
		return nil, fmt.Errorf("download file: item %s has no local path parts", item.ID)
	}

	target := m.repo.MediaPath(item.LocalPathParts...)
	m.track(target)
	defer m.untrack(target)

	m.logger.Info("downloading media file",
		logging.String("item_id", item.ItemID),
		logging.String("path", target))

	if err := m.fetch(ctx, url, target); err != nil {
		return nil, err
	}
	return &DownloadResult{Path: target, Complete: true}, nil
}

// DownloadImage fetches an image into the metadata area.
func (m *HTTPManager) DownloadImage(ctx context.Context, url string, pathParts []string) (string, error) {
	if len(pathParts) == 0 {
		return "", fmt.Errorf("download image: no path parts")
	}

	target := m.repo.MetadataPath(pathParts...)
	m.track(target)
	defer m.untrack(target)

	if err := m.fetch(ctx, url, target); err != nil {
		return "", err
	}
	return target, nil
}

// DownloadSubtitles fetches a subtitle file to the given path.
func (m *HTTPManager) DownloadSubtitles(ctx context.Context, url, filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("download subtitles: no file path")
	}

	m.track(filePath)
	defer m.untrack(filePath)

	if err := m.fetch(ctx, url, filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

// ResyncTransfers reconciles queued transfers. Inline downloads never
// outlive the call that started them, so there is nothing to recover.
func (m *HTTPManager) ResyncTransfers(ctx context.Context) error {
	return nil
}

// DownloadCount returns the number of transfers currently in flight.
func (m *HTTPManager) DownloadCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight), nil
}

// IsDownloadFileInQueue reports whether the target path is being
// written right now.
func (m *HTTPManager) IsDownloadFileInQueue(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inFlight[path]
	return ok
}

// EnableBackgroundCompletion always reports false: inline transfers are
// done when DownloadFile returns.
func (m *HTTPManager) EnableBackgroundCompletion() bool {
	return false
}

func (m *HTTPManager) fetch(ctx context.Context, url, target string) error {
	err := retry.Do(
		func() error {
			return m.fetchOnce(ctx, url, target)
		},
		retry.Context(ctx),
		retry.Attempts(m.retries),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			m.logger.Warn("retrying download",
				logging.String("url", url),
				logging.Int("attempt", int(attempt)+1),
				logging.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

func (m *HTTPManager) fetchOnce(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return retry.Unrecoverable(fmt.Errorf("server returned %s", resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	written, err := m.repo.WriteFile(target, resp.Body)
	if err != nil {
		return err
	}
	m.logger.Debug("download complete",
		logging.String("path", target),
		logging.Int64("bytes", written))
	return nil
}

func (m *HTTPManager) track(path string) {
	m.mu.Lock()
	m.inFlight[path] = struct{}{}
	m.mu.Unlock()
}

func (m *HTTPManager) untrack(path string) {
	m.mu.Lock()
	delete(m.inFlight, path)
	m.mu.Unlock()
}

var _ Manager = (*HTTPManager)(nil)
