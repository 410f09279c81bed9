package domain

import "time"

// Product is a page-scoped catalog entry surfaced by catalog sizing or
// sitemap parsing.
type Product struct {
	ID           string
	PageID       string
	Handle       string
	Title        *string
	URL          *URL
	PriceLow     *float64
	PriceHigh    *float64
	Currency     *Currency
	IsAvailable  *bool
	Tags         []string
	Vendor       *string
	FirstSeenAt  time.Time
	LastSeenAt   time.Time
}

// NewProduct constructs a newly discovered product.
func NewProduct(id, pageID, handle string, now time.Time) *Product {
	return &Product{
		ID:          id,
		PageID:      pageID,
		Handle:      handle,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

// Refresh updates the last-seen timestamp on re-sighting.
func (p *Product) Refresh(now time.Time) { p.LastSeenAt = now }
