// Package domain holds the pure entities, value objects, and state machines
// of the shop-intelligence pipeline. Nothing here performs I/O or imports a
// platform package; use cases translate domain errors into the taxonomy in
// internal/platform/errors at the boundary.
package domain

import "errors"

var (
	// ErrInvalidStateTransition is returned when a Page or Scan/KeywordRun
	// is asked to move to a status not reachable from its current one.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInvalidURL is returned by NewURL for a string that is not a
	// well-formed http(s) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidCountry is returned for a code outside the supported
	// ISO-3166-1 alpha-2 set.
	ErrInvalidCountry = errors.New("invalid country code")

	// ErrInvalidCurrency is returned for a code outside the supported
	// ISO-4217 set.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrInvalidLanguage is returned for a code outside the supported
	// ISO-639-1 set.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrInvalidCategory is returned for a category string failing the
	// length bounds.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidProductCount is returned for a negative or out-of-range
	// product count.
	ErrInvalidProductCount = errors.New("invalid product count")

	// ErrInvalidScanID is returned when a scan id does not parse as a
	// UUID v4.
	ErrInvalidScanID = errors.New("invalid scan id")

	// ErrInvalidRankingCriteria is returned for a limit/offset outside
	// the allowed bounds.
	ErrInvalidRankingCriteria = errors.New("invalid ranking criteria")

	// ErrInvalidKeyword is returned for an empty-after-trim search keyword.
	ErrInvalidKeyword = errors.New("invalid keyword")

	// ErrInvalidPaymentMethod is returned for a payment method outside the
	// known token set.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)
