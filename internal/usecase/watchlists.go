package usecase

import (
	"context"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/ports"
)

// Watchlists implements the watchlist CRUD and on-demand bulk-rescan use
// cases: collections of pages a caller curates and can trigger a fresh
// scan_page task for, in bulk.
type Watchlists struct {
	watchlists ports.WatchlistRepository
	pages      ports.PageRepository
	tasks      ports.TaskDispatcher
	ids        ports.IDGenerator
	clock      ports.Clock
}

// NewWatchlists wires a Watchlists use case.
func NewWatchlists(watchlists ports.WatchlistRepository, pages ports.PageRepository, tasks ports.TaskDispatcher, ids ports.IDGenerator, clock ports.Clock) *Watchlists {
	return &Watchlists{watchlists: watchlists, pages: pages, tasks: tasks, ids: ids, clock: clock}
}

// Create makes a new, empty watchlist owned by ownerID.
func (uc *Watchlists) Create(ctx context.Context, ownerID, name string) (*domain.Watchlist, error) {
	watchlist := domain.NewWatchlist(uc.ids.NewID(), ownerID, name, uc.clock.Now())
	if err := uc.watchlists.Create(ctx, watchlist); err != nil {
		return nil, errors.Repository("create_watchlist", err)
	}
	return watchlist, nil
}

// Rename updates a watchlist's display name.
func (uc *Watchlists) Rename(ctx context.Context, watchlistID, name string) (*domain.Watchlist, error) {
	watchlist, err := uc.watchlists.Get(ctx, watchlistID)
	if err != nil {
		return nil, errors.NotFound("watchlist", watchlistID)
	}
	watchlist.Rename(name, uc.clock.Now())
	if err := uc.watchlists.Update(ctx, watchlist); err != nil {
		return nil, errors.Repository("update_watchlist", err)
	}
	return watchlist, nil
}

// Delete removes a watchlist and its items.
func (uc *Watchlists) Delete(ctx context.Context, watchlistID string) error {
	if _, err := uc.watchlists.Get(ctx, watchlistID); err != nil {
		return errors.NotFound("watchlist", watchlistID)
	}
	if err := uc.watchlists.Delete(ctx, watchlistID); err != nil {
		return errors.Repository("delete_watchlist", err)
	}
	return nil
}

// AddItem links a page into a watchlist.
func (uc *Watchlists) AddItem(ctx context.Context, watchlistID, pageID string) (*domain.WatchlistItem, error) {
	if _, err := uc.watchlists.Get(ctx, watchlistID); err != nil {
		return nil, errors.NotFound("watchlist", watchlistID)
	}
	if _, err := uc.pages.Get(ctx, pageID); err != nil {
		return nil, errors.NotFound("page", pageID)
	}
	item := domain.NewWatchlistItem(uc.ids.NewID(), watchlistID, pageID, uc.clock.Now())
	if err := uc.watchlists.AddItem(ctx, item); err != nil {
		return nil, errors.Repository("add_watchlist_item", err)
	}
	return item, nil
}

// RemoveItem unlinks a page from a watchlist.
func (uc *Watchlists) RemoveItem(ctx context.Context, watchlistID, pageID string) error {
	if err := uc.watchlists.RemoveItem(ctx, watchlistID, pageID); err != nil {
		return errors.Repository("remove_watchlist_item", err)
	}
	return nil
}

// ListItems returns every page currently linked into a watchlist.
func (uc *Watchlists) ListItems(ctx context.Context, watchlistID string) ([]domain.WatchlistItem, error) {
	items, err := uc.watchlists.ListItems(ctx, watchlistID)
	if err != nil {
		return nil, errors.Repository("list_watchlist_items", err)
	}
	return items, nil
}

// ScanNow enqueues a fresh scan_page task for every page in a watchlist. A
// single dispatch failure is recorded but does not abort the rest of the
// batch.
func (uc *Watchlists) ScanNow(ctx context.Context, watchlistID string) (dispatched int, failed int, err error) {
	items, err := uc.watchlists.ListItems(ctx, watchlistID)
	if err != nil {
		return 0, 0, errors.Repository("list_watchlist_items", err)
	}

	for _, item := range items {
		dispatchErr := uc.tasks.Enqueue(ctx, ports.Task{
			Kind:    ports.TaskScanPage,
			Payload: map[string]any{"page_id": item.PageID},
		})
		if dispatchErr != nil {
			failed++
			continue
		}
		dispatched++
	}
	return dispatched, failed, nil
}
