package domain

import "time"

// Page is a tracked storefront, followed from first appearance in keyword
// results through its analysis pipeline and ongoing monitoring.
//
// Invariant: Domain equals the registrable host of URL.
type Page struct {
	ID                 string
	AdvertiserID       string
	URL                URL
	Domain             string
	State              PageState
	Country            *Country
	Language           *Language
	Currency           *Currency
	Category           *Category
	ProductCount       int
	IsCommercePlatform bool
	ProfileID          *string
	ActiveAdsCount     int
	TotalAdsCount      int
	Score              float64
	FirstSeenAt        time.Time
	LastScannedAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewPage constructs a newly discovered page.
func NewPage(id, advertiserID string, url URL, country *Country, category *Category, now time.Time) *Page {
	return &Page{
		ID:           id,
		AdvertiserID: advertiserID,
		URL:          url,
		Domain:       url.Domain(),
		State:        InitialPageState(),
		Country:      country,
		Category:     category,
		FirstSeenAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TransitionTo moves the page to a new state, enforcing the state machine.
func (p *Page) TransitionTo(target PageStatus, now time.Time) error {
	next, err := p.State.TransitionTo(target)
	if err != nil {
		return err
	}
	p.State = next
	p.UpdatedAt = now
	return nil
}

// MarkVerifiedCommerce records a positive commerce-platform detection.
func (p *Page) MarkVerifiedCommerce(profileID string, now time.Time) error {
	if err := p.TransitionTo(PageVerifiedCommerce, now); err != nil {
		return err
	}
	p.IsCommercePlatform = true
	p.ProfileID = &profileID
	return nil
}

// MarkNotCommerce records a negative commerce-platform detection.
func (p *Page) MarkNotCommerce(now time.Time) error {
	if err := p.TransitionTo(PageNotCommerce, now); err != nil {
		return err
	}
	p.IsCommercePlatform = false
	p.ProfileID = nil
	return nil
}

// UpdateAdsCount refreshes the active/total ad counts from a fresh scan.
func (p *Page) UpdateAdsCount(active, total int, now time.Time) {
	p.ActiveAdsCount = active
	p.TotalAdsCount = total
	p.LastScannedAt = &now
	p.UpdatedAt = now
}

// UpdateScore stores a freshly computed score.
func (p *Page) UpdateScore(score float64, now time.Time) {
	p.Score = clampScore(score)
	p.UpdatedAt = now
}

// UpdateProductCount stores a freshly computed catalog size, optionally
// promoting the page to active per §4.1's catalog-sizing rule.
func (p *Page) UpdateProductCount(count int, now time.Time) error {
	validated, err := NewProductCount(count)
	if err != nil {
		return err
	}
	p.ProductCount = validated
	p.UpdatedAt = now
	if p.State.Status == PageVerifiedCommerce && validated > 0 {
		return p.TransitionTo(PageActive, now)
	}
	return nil
}

// IsActive reports whether the page is actively monitored.
func (p *Page) IsActive() bool { return p.State.IsActive() }

// NeedsAnalysis reports whether the page requires analysis.
func (p *Page) NeedsAnalysis() bool { return p.State.RequiresAnalysis() }

// HasActiveAds reports whether the page currently carries any active ad.
func (p *Page) HasActiveAds() bool { return p.ActiveAdsCount > 0 }
