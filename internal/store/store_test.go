package store_test

import (
	"context"
	"fmt"
	"testing"

	"satchel/internal/media"
	"satchel/internal/store"
	"satchel/internal/testsupport"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.SeedItem(t, st, "server-1", "item-1", media.TypeMovie, store.StatusQueued)

	fetched, err := st.GetItem(ctx, "server-1", item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if fetched == nil || fetched.Item.Name != "Item item-1" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.Status != store.StatusQueued {
		t.Fatalf("expected queued status, got %s", fetched.Status)
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestOpenLocksDataDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustOpenStore(t, cfg)

	if _, err := store.Open(cfg); err == nil {
		t.Fatal("expected second Open on same data dir to fail")
	}
}

func TestSaveItemRequiresIdentifiers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if err := st.SaveItem(ctx, &store.LocalItem{ServerID: "server-1"}); err == nil {
		t.Fatal("expected error when id missing")
	}
	if err := st.SaveItem(ctx, &store.LocalItem{ID: "item-1"}); err == nil {
		t.Fatal("expected error when server id missing")
	}
}

func TestSaveItemUpsertsAndRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := &store.LocalItem{
		ServerID: "server-1",
		ID:       "item-1",
		ItemID:   "item-1",
		Item: media.Item{
			ID:       "item-1",
			ServerID: "server-1",
			Name:     "Interstellar",
			Type:     media.TypeMovie,
		},
		LocalPath:      "/media/Movies/Interstellar/Interstellar.mkv",
		LocalPathParts: []string{"Movies", "Interstellar", "Interstellar.mkv"},
		SyncJobItemID:  "job-9",
		Status:         store.StatusTransferring,
	}
	if err := st.SaveItem(ctx, item); err != nil {
		t.Fatalf("SaveItem failed: %v", err)
	}

	item.Status = store.StatusSynced
	if err := st.SaveItem(ctx, item); err != nil {
		t.Fatalf("SaveItem update failed: %v", err)
	}

	fetched, err := st.GetItem(ctx, "server-1", "item-1")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if fetched.Status != store.StatusSynced {
		t.Fatalf("expected synced after upsert, got %s", fetched.Status)
	}
	if fetched.Item.Name != "Interstellar" {
		t.Fatalf("unexpected item payload: %#v", fetched.Item)
	}
	if len(fetched.LocalPathParts) != 3 || fetched.LocalPathParts[1] != "Interstellar" {
		t.Fatalf("unexpected path parts: %v", fetched.LocalPathParts)
	}
	if fetched.SyncJobItemID != "job-9" {
		t.Fatalf("unexpected sync job item id: %q", fetched.SyncJobItemID)
	}
}

func TestGetItemMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	fetched, err := st.GetItem(context.Background(), "server-1", "nope")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected nil for missing item, got %#v", fetched)
	}
}

func TestRemoveItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedItem(t, st, "server-1", "item-1", media.TypeMovie, store.StatusSynced)

	removed, err := st.RemoveItem(ctx, "server-1", "item-1")
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}

	removed, err = st.RemoveItem(ctx, "server-1", "item-1")
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if removed {
		t.Fatal("expected second removal to report false")
	}
}

func TestItemsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedItem(t, st, "server-1", "a", media.TypeMovie, store.StatusQueued)
	testsupport.SeedItem(t, st, "server-1", "b", media.TypeMovie, store.StatusTransferring)
	testsupport.SeedItem(t, st, "server-1", "c", media.TypeEpisode, store.StatusSynced)
	testsupport.SeedItem(t, st, "server-2", "d", media.TypeMovie, store.StatusQueued)

	inProgress, err := st.ItemsByStatus(ctx, "server-1", store.StatusQueued, store.StatusTransferring)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	if len(inProgress) != 2 {
		t.Fatalf("expected 2 in-progress items, got %d", len(inProgress))
	}

	all, err := st.ItemsForServer(ctx, "server-1")
	if err != nil {
		t.Fatalf("ItemsForServer failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items for server-1, got %d", len(all))
	}
}

func TestDistinctItemTypes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedItem(t, st, "server-1", "a", media.TypeMovie, store.StatusSynced)
	testsupport.SeedItem(t, st, "server-1", "b", media.TypeMovie, store.StatusSynced)
	testsupport.SeedItem(t, st, "server-1", "c", media.TypeAudio, store.StatusSynced)

	types, err := st.DistinctItemTypes(ctx, "server-1")
	if err != nil {
		t.Fatalf("DistinctItemTypes failed: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 distinct types, got %v", types)
	}
}

func TestItemStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.SeedItem(t, st, "server-1", fmt.Sprintf("q-%d", i), media.TypeMovie, store.StatusQueued)
	}
	testsupport.SeedItem(t, st, "server-1", "s-1", media.TypeMovie, store.StatusSynced)

	stats, err := st.ItemStats(ctx, "server-1")
	if err != nil {
		t.Fatalf("ItemStats failed: %v", err)
	}
	if stats[store.StatusQueued] != 3 || stats[store.StatusSynced] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestActionsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	action := testsupport.SeedAction(t, st, "action-1", "server-1", "item-1")

	fetched, err := st.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction failed: %v", err)
	}
	if fetched == nil || fetched.Type != store.UserActionPlayed {
		t.Fatalf("unexpected action: %#v", fetched)
	}

	action.PositionTicks = 1234
	if err := st.SaveAction(ctx, action); err != nil {
		t.Fatalf("SaveAction upsert failed: %v", err)
	}
	fetched, err = st.GetAction(ctx, action.ID)
	if err != nil {
		t.Fatalf("GetAction failed: %v", err)
	}
	if fetched.PositionTicks != 1234 {
		t.Fatalf("expected upserted ticks, got %d", fetched.PositionTicks)
	}
}

func TestActionsForServerOrdersByDate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := &store.UserAction{ID: "a-1", ServerID: "server-1", ItemID: "i", Type: store.UserActionPlayed, Date: 200}
	second := &store.UserAction{ID: "a-2", ServerID: "server-1", ItemID: "i", Type: store.UserActionPlayed, Date: 100}
	other := &store.UserAction{ID: "a-3", ServerID: "server-2", ItemID: "i", Type: store.UserActionPlayed, Date: 50}
	for _, action := range []*store.UserAction{first, second, other} {
		if err := st.SaveAction(ctx, action); err != nil {
			t.Fatalf("SaveAction failed: %v", err)
		}
	}

	actions, err := st.ActionsForServer(ctx, "server-1")
	if err != nil {
		t.Fatalf("ActionsForServer failed: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].ID != "a-2" || actions[1].ID != "a-1" {
		t.Fatalf("expected date ordering, got %s then %s", actions[0].ID, actions[1].ID)
	}
}

func TestRemoveAndClearActions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedAction(t, st, "a-1", "server-1", "item-1")
	testsupport.SeedAction(t, st, "a-2", "server-1", "item-2")

	removed, err := st.RemoveAction(ctx, "a-1")
	if err != nil {
		t.Fatalf("RemoveAction failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}

	cleared, err := st.ClearActions(ctx, "server-1")
	if err != nil {
		t.Fatalf("ClearActions failed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared action, got %d", cleared)
	}

	remaining, err := st.ActionsForServer(ctx, "server-1")
	if err != nil {
		t.Fatalf("ActionsForServer failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no remaining actions, got %d", len(remaining))
	}
}

func TestParseSyncStatus(t *testing.T) {
	status, ok := store.ParseSyncStatus(" Synced ")
	if !ok || status != store.StatusSynced {
		t.Fatalf("expected synced, got %q ok=%v", status, ok)
	}
	if _, ok := store.ParseSyncStatus("bogus"); ok {
		t.Fatal("expected unknown status to fail")
	}
}
