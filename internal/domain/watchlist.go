package domain

import "time"

// Watchlist is a user-named collection of pages.
type Watchlist struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWatchlist constructs a new, empty watchlist.
func NewWatchlist(id, ownerID, name string, now time.Time) *Watchlist {
	return &Watchlist{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Rename updates the watchlist's display name.
func (w *Watchlist) Rename(name string, now time.Time) {
	w.Name = name
	w.UpdatedAt = now
}

// WatchlistItem is one page entry in a Watchlist. Unique on
// (WatchlistID, PageID).
type WatchlistItem struct {
	ID          string
	WatchlistID string
	PageID      string
	Note        *string
	AddedAt     time.Time
}

// NewWatchlistItem constructs a new item linking pageID into watchlistID.
func NewWatchlistItem(id, watchlistID, pageID string, now time.Time) *WatchlistItem {
	return &WatchlistItem{
		ID:          id,
		WatchlistID: watchlistID,
		PageID:      pageID,
		AddedAt:     now,
	}
}
