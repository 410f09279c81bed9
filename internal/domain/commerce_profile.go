package domain

import "time"

// CommerceTheme describes the storefront theme detected on a commerce page.
type CommerceTheme struct {
	Name     string
	Version  *string
	IsCustom bool
}

// CommerceApp is a third-party app/integration detected on the storefront.
type CommerceApp struct {
	Name     string
	Slug     *string
	Category *string
}

// CommerceProfile is the enriched per-page fingerprint built by the
// site-analysis use case once a page is confirmed as a commerce platform.
type CommerceProfile struct {
	ID             string
	PageID         string
	ShopName       *string
	PlatformDomain *string
	Theme          *CommerceTheme
	Apps           []CommerceApp
	PaymentMethods PaymentMethodSet
	TrackingPixels []string
	TrustScore     *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewCommerceProfile constructs a profile for a page just confirmed as
// running on a commerce platform.
func NewCommerceProfile(id, pageID string, now time.Time) *CommerceProfile {
	return &CommerceProfile{
		ID:             id,
		PageID:         pageID,
		PaymentMethods: PaymentMethodSet{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetPaymentMethods replaces the accepted-payment-method set.
func (p *CommerceProfile) SetPaymentMethods(methods PaymentMethodSet, now time.Time) {
	p.PaymentMethods = methods
	p.UpdatedAt = now
}
