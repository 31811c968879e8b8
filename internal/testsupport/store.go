package testsupport

import (
	"context"
	"testing"
	"time"

	"satchel/internal/config"
	"satchel/internal/media"
	"satchel/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedItem saves a minimal local item for tests using the provided store.
func SeedItem(t testing.TB, st *store.Store, serverID, itemID string, itemType string, status store.SyncStatus) *store.LocalItem {
	t.Helper()

	item := &store.LocalItem{
		ServerID: serverID,
		ID:       itemID,
		ItemID:   itemID,
		Item: media.Item{
			ID:       itemID,
			ServerID: serverID,
			Name:     "Item " + itemID,
			Type:     itemType,
		},
		Status: status,
	}
	if err := st.SaveItem(context.Background(), item); err != nil {
		t.Fatalf("store.SaveItem: %v", err)
	}
	return item
}

// SeedAction saves a played-item action for tests using the provided store.
func SeedAction(t testing.TB, st *store.Store, id, serverID, itemID string) *store.UserAction {
	t.Helper()

	action := &store.UserAction{
		ID:            id,
		ServerID:      serverID,
		UserID:        "user-1",
		ItemID:        itemID,
		Type:          store.UserActionPlayed,
		Date:          time.Now().UnixMilli(),
		PositionTicks: 0,
	}
	if err := st.SaveAction(context.Background(), action); err != nil {
		t.Fatalf("store.SaveAction: %v", err)
	}
	return action
}
