package domain

import "time"

// BlacklistEntry excludes one advertiser ID from keyword-search ingestion
// (§4.2 step 4: groups whose advertiser ID is blacklisted are skipped
// before a Page is ever created for them).
type BlacklistEntry struct {
	AdvertiserID string
	Reason       string
	CreatedAt    time.Time
}
