package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/ports"
)

func setupWatchlists(t *testing.T) (*Watchlists, *fakePageRepository, *fakeTaskDispatcher, *fakeClock) {
	t.Helper()
	clock := newFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	watchlists := newFakeWatchlistRepository()
	pages := newFakePageRepository()
	tasks := newFakeTaskDispatcher()
	uc := NewWatchlists(watchlists, pages, tasks, newFakeIDGenerator("watchlist"), clock)
	return uc, pages, tasks, clock
}

func TestWatchlistsCreateAddItemAndScanNow(t *testing.T) {
	uc, pages, tasks, clock := setupWatchlists(t)

	url, err := domain.NewURL("https://example-shop.com")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}
	page := domain.NewPage("page-1", "adv-1", url, nil, nil, clock.Now())
	if err := pages.Create(context.Background(), page); err != nil {
		t.Fatalf("Create page: %v", err)
	}

	watchlist, err := uc.Create(context.Background(), "owner-1", "My Watchlist")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := uc.AddItem(context.Background(), watchlist.ID, "page-1"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	dispatched, failed, err := uc.ScanNow(context.Background(), watchlist.ID)
	if err != nil {
		t.Fatalf("ScanNow: %v", err)
	}
	if dispatched != 1 || failed != 0 {
		t.Fatalf("expected 1 dispatched, 0 failed, got dispatched=%d failed=%d", dispatched, failed)
	}
	if len(tasks.enqueued) != 1 || tasks.enqueued[0].Kind != ports.TaskScanPage {
		t.Fatalf("expected a scan_page task to be enqueued, got %+v", tasks.enqueued)
	}
}

// A single dispatch failure in ScanNow must not abort the rest of the batch.
func TestWatchlistsScanNowTogglesFailedWithoutAborting(t *testing.T) {
	uc, pages, tasks, clock := setupWatchlists(t)
	tasks.failKind[ports.TaskScanPage] = true

	url, err := domain.NewURL("https://example-shop.com")
	if err != nil {
		t.Fatalf("NewURL: %v", err)
	}
	for _, id := range []string{"page-1", "page-2"} {
		page := domain.NewPage(id, "adv-"+id, url, nil, nil, clock.Now())
		if err := pages.Create(context.Background(), page); err != nil {
			t.Fatalf("Create page: %v", err)
		}
	}

	watchlist, err := uc.Create(context.Background(), "owner-1", "My Watchlist")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, id := range []string{"page-1", "page-2"} {
		if _, err := uc.AddItem(context.Background(), watchlist.ID, id); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}

	dispatched, failed, err := uc.ScanNow(context.Background(), watchlist.ID)
	if err != nil {
		t.Fatalf("ScanNow must not error on per-item dispatch failures: %v", err)
	}
	if dispatched != 0 || failed != 2 {
		t.Fatalf("expected both dispatches to fail independently, got dispatched=%d failed=%d", dispatched, failed)
	}
}
