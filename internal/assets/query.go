package assets

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"satchel/internal/localid"
	"satchel/internal/media"
	"satchel/internal/store"
)

// ItemFilter restricts a view query to folders or leaves.
type ItemFilter string

const (
	FilterIsFolder    ItemFilter = "IsFolder"
	FilterIsNotFolder ItemFilter = "IsNotFolder"
)

// Sort orders accepted by view queries. Anything else sorts by name.
const (
	SortByDateCreated = "DateCreated"
	SortByRandom      = "Random"
)

// Query narrows a view listing. Ids may carry local routing prefixes;
// they are normalized before matching.
type Query struct {
	ParentID         string
	SeasonID         string
	SeriesID         string
	AlbumIDs         []string
	IncludeItemTypes []string
	MediaTypes       []string
	Filters          []ItemFilter
	Recursive        bool
	SortBy           string
	Limit            int
}

// GetViewItems lists locally synced items matching the query,
// emulating the server's item endpoint over the local store. Only fully
// synced items are ever returned.
func (m *Manager) GetViewItems(ctx context.Context, serverID string, query Query) ([]media.Item, error) {
	if query.Limit < 0 {
		return nil, fmt.Errorf("negative item limit %d", query.Limit)
	}

	parentID := localid.Strip(query.ParentID)
	seasonID := localid.Strip(query.SeasonID)
	seriesID := localid.Strip(query.SeriesID)
	albumIDs := make([]string, 0, len(query.AlbumIDs))
	for _, id := range query.AlbumIDs {
		albumIDs = append(albumIDs, localid.Strip(id))
	}

	includeTypes := append([]string(nil), query.IncludeItemTypes...)
	if translated, ok := translateVirtualView(parentID, query.Recursive); ok {
		includeTypes = append(includeTypes, translated)
		parentID = ""
	}

	localItems, err := m.store.ItemsForServer(ctx, serverID)
	if err != nil {
		return nil, err
	}

	var results []media.Item
	for _, localItem := range localItems {
		if !matchesQuery(localItem, parentID, seasonID, seriesID, albumIDs, includeTypes, query) {
			continue
		}
		results = append(results, localItem.Item)
	}

	sortItems(results, query.SortBy)

	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

func matchesQuery(localItem *store.LocalItem, parentID, seasonID, seriesID string, albumIDs, includeTypes []string, query Query) bool {
	if localItem.Status != store.StatusSynced {
		return false
	}
	item := localItem.Item

	if len(query.MediaTypes) > 0 && !contains(query.MediaTypes, item.MediaType) {
		return false
	}
	if seriesID != "" && item.SeriesID != seriesID {
		return false
	}
	if seasonID != "" && item.SeasonID != seasonID {
		return false
	}
	if len(albumIDs) > 0 && !contains(albumIDs, item.AlbumID) {
		return false
	}
	for _, filter := range query.Filters {
		if filter == FilterIsNotFolder && item.IsFolder {
			return false
		}
		if filter == FilterIsFolder && !item.IsFolder {
			return false
		}
	}
	if len(includeTypes) > 0 && !contains(includeTypes, item.Type) {
		return false
	}
	if !query.Recursive && parentID != "" && item.ParentID != parentID {
		return false
	}
	return true
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func sortItems(items []media.Item, sortBy string) {
	if idx := strings.IndexByte(sortBy, ','); idx >= 0 {
		sortBy = sortBy[:idx]
	}

	switch sortBy {
	case SortByDateCreated:
		sort.SliceStable(items, func(i, j int) bool {
			return dateValue(items[i].DateCreated).Before(dateValue(items[j].DateCreated))
		})
	case SortByRandom:
		rand.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	default:
		collator := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			return collator.CompareString(sortKey(items[i]), sortKey(items[j])) < 0
		})
	}
}

func sortKey(item media.Item) string {
	if item.SortName != "" {
		return item.SortName
	}
	return item.Name
}

func dateValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
