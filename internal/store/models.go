package store

import (
	"strings"
	"time"

	"satchel/internal/media"
)

// SyncStatus represents the lifecycle of a local item.
type SyncStatus string

const (
	StatusQueued       SyncStatus = "queued"
	StatusTransferring SyncStatus = "transferring"
	StatusSynced       SyncStatus = "synced"
	StatusError        SyncStatus = "error"
)

var allStatuses = []SyncStatus{
	StatusQueued,
	StatusTransferring,
	StatusSynced,
	StatusError,
}

var statusSet = func() map[SyncStatus]struct{} {
	set := make(map[SyncStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []SyncStatus {
	cp := make([]SyncStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseSyncStatus converts a string into a known SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, bool) {
	normalized := SyncStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsComplete reports whether a status represents a finished transfer,
// successful or not. Completed items are what sync-data reconciliation
// reports back to the server.
func (s SyncStatus) IsComplete() bool {
	return s == StatusSynced || s == StatusError
}

// InProgress reports whether a transfer is still expected to advance.
func (s SyncStatus) InProgress() bool {
	return s == StatusQueued || s == StatusTransferring
}

// LocalItem is one synced media record. ID and ItemID hold the server's
// original item id; routing prefixes are never stored.
type LocalItem struct {
	ServerID string
	ID       string
	ItemID   string

	Item media.Item

	LocalPath      string
	LocalPathParts []string
	SyncJobItemID  string
	Status         SyncStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAction records a playback event that happened while offline and
// awaits upload to the server.
type UserAction struct {
	ID            string
	ServerID      string
	UserID        string
	ItemID        string
	Type          string
	Date          int64 // epoch milliseconds
	PositionTicks int64
}

// UserActionPlayed is the action type recorded on playback stop.
const UserActionPlayed = "PlayedItem"
