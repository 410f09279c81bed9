package httpapi

import (
	"time"

	"github.com/shopsignal/platform/internal/domain"
)

// Domain value objects (URL, Country, Language, ...) carry unexported
// fields, so every response shape here is a flat DTO rather than a
// marshaled domain struct.

type pageDTO struct {
	ID                 string  `json:"id"`
	AdvertiserID       string  `json:"advertiser_id"`
	URL                string  `json:"url"`
	Domain             string  `json:"domain"`
	State              string  `json:"state"`
	Country            *string `json:"country,omitempty"`
	Language           *string `json:"language,omitempty"`
	Currency           *string `json:"currency,omitempty"`
	Category           *string `json:"category,omitempty"`
	ProductCount       int     `json:"product_count"`
	IsCommercePlatform bool    `json:"is_commerce_platform"`
	ActiveAdsCount     int     `json:"active_ads_count"`
	TotalAdsCount      int     `json:"total_ads_count"`
	Score              float64 `json:"score"`
	Tier               string  `json:"tier"`
	FirstSeenAt        string  `json:"first_seen_at"`
	LastScannedAt      *string `json:"last_scanned_at,omitempty"`
}

func toPageDTO(p *domain.Page) pageDTO {
	dto := pageDTO{
		ID:                 p.ID,
		AdvertiserID:       p.AdvertiserID,
		URL:                p.URL.String(),
		Domain:             p.Domain,
		State:              string(p.State),
		ProductCount:       p.ProductCount,
		IsCommercePlatform: p.IsCommercePlatform,
		ActiveAdsCount:     p.ActiveAdsCount,
		TotalAdsCount:      p.TotalAdsCount,
		Score:              p.Score,
		Tier:               string(domain.ScoreToTier(p.Score)),
		FirstSeenAt:        p.FirstSeenAt.Format(time.RFC3339),
	}
	if p.Country != nil {
		s := string(*p.Country)
		dto.Country = &s
	}
	if p.Language != nil {
		s := string(*p.Language)
		dto.Language = &s
	}
	if p.Currency != nil {
		s := string(*p.Currency)
		dto.Currency = &s
	}
	if p.Category != nil {
		s := string(*p.Category)
		dto.Category = &s
	}
	if p.LastScannedAt != nil {
		s := p.LastScannedAt.Format(time.RFC3339)
		dto.LastScannedAt = &s
	}
	return dto
}

type rankedShopDTO struct {
	PageID  string  `json:"page_id"`
	Score   float64 `json:"score"`
	Tier    string  `json:"tier"`
	URL     *string `json:"url,omitempty"`
	Country *string `json:"country,omitempty"`
	Name    *string `json:"name,omitempty"`
}

func toRankedShopDTO(s domain.RankedShop) rankedShopDTO {
	dto := rankedShopDTO{PageID: s.PageID, Score: s.Score, Tier: string(s.Tier), Name: s.Name}
	if s.URL != nil {
		u := s.URL.String()
		dto.URL = &u
	}
	if s.Country != nil {
		c := string(*s.Country)
		dto.Country = &c
	}
	return dto
}

type scanDTO struct {
	ID           string         `json:"id"`
	PageID       string         `json:"page_id"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	Result       *scanResultDTO `json:"result,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	CreatedAt    string         `json:"created_at"`
	CompletedAt  *string        `json:"completed_at,omitempty"`
}

type scanResultDTO struct {
	AdsFound      int      `json:"ads_found"`
	NewAds        int      `json:"new_ads"`
	ProductsFound int      `json:"products_found"`
	IsCommerce    *bool    `json:"is_commerce,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

func toScanDTO(s *domain.Scan) scanDTO {
	dto := scanDTO{
		ID:           s.ID,
		PageID:       s.PageID,
		Type:         string(s.Type),
		Status:       string(s.Status),
		ErrorMessage: s.ErrorMessage,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
	if s.CompletedAt != nil {
		c := s.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &c
	}
	if s.Result != nil {
		dto.Result = &scanResultDTO{
			AdsFound:      s.Result.AdsFound,
			NewAds:        s.Result.NewAds,
			ProductsFound: s.Result.ProductsFound,
			IsCommerce:    s.Result.IsCommerce,
			Errors:        s.Result.Errors,
			Warnings:      s.Result.Warnings,
		}
	}
	return dto
}

type alertDTO struct {
	ID        string   `json:"id"`
	PageID    string   `json:"page_id"`
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
	Message   string   `json:"message"`
	OldScore  *float64 `json:"old_score,omitempty"`
	NewScore  *float64 `json:"new_score,omitempty"`
	OldTier   *string  `json:"old_tier,omitempty"`
	NewTier   *string  `json:"new_tier,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func toAlertDTO(a domain.Alert) alertDTO {
	dto := alertDTO{
		ID:        a.ID,
		PageID:    a.PageID,
		Type:      string(a.Type),
		Severity:  string(a.Severity),
		Message:   a.Message,
		OldScore:  a.OldScore,
		NewScore:  a.NewScore,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.OldTier != nil {
		s := string(*a.OldTier)
		dto.OldTier = &s
	}
	if a.NewTier != nil {
		s := string(*a.NewTier)
		dto.NewTier = &s
	}
	return dto
}

type watchlistDTO struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toWatchlistDTO(w *domain.Watchlist) watchlistDTO {
	return watchlistDTO{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Name:      w.Name,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

type watchlistItemDTO struct {
	ID          string  `json:"id"`
	WatchlistID string  `json:"watchlist_id"`
	PageID      string  `json:"page_id"`
	Note        *string `json:"note,omitempty"`
	AddedAt     string  `json:"added_at"`
}

func toWatchlistItemDTO(i domain.WatchlistItem) watchlistItemDTO {
	return watchlistItemDTO{
		ID:          i.ID,
		WatchlistID: i.WatchlistID,
		PageID:      i.PageID,
		Note:        i.Note,
		AddedAt:     i.AddedAt.Format(time.RFC3339),
	}
}

type productDTO struct {
	ID          string   `json:"id"`
	PageID      string   `json:"page_id"`
	Handle      string   `json:"handle"`
	Title       *string  `json:"title,omitempty"`
	URL         *string  `json:"url,omitempty"`
	PriceLow    *float64 `json:"price_low,omitempty"`
	PriceHigh   *float64 `json:"price_high,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Vendor      *string  `json:"vendor,omitempty"`
	FirstSeenAt string   `json:"first_seen_at"`
	LastSeenAt  string   `json:"last_seen_at"`
}

func toProductDTO(p domain.Product) productDTO {
	dto := productDTO{
		ID:          p.ID,
		PageID:      p.PageID,
		Handle:      p.Handle,
		Title:       p.Title,
		PriceLow:    p.PriceLow,
		PriceHigh:   p.PriceHigh,
		IsAvailable: p.IsAvailable,
		Tags:        p.Tags,
		Vendor:      p.Vendor,
		FirstSeenAt: p.FirstSeenAt.Format(time.RFC3339),
		LastSeenAt:  p.LastSeenAt.Format(time.RFC3339),
	}
	if p.URL != nil {
		s := p.URL.String()
		dto.URL = &s
	}
	if p.Currency != nil {
		s := string(*p.Currency)
		dto.Currency = &s
	}
	return dto
}

type monitoringSummaryDTO struct {
	TotalPages              int     `json:"total_pages"`
	PagesWithScores         int     `json:"pages_with_scores"`
	AlertsLast24h           int     `json:"alerts_last_24h"`
	AlertsLast7d            int     `json:"alerts_last_7d"`
	LastMetricsSnapshotDate *string `json:"last_metrics_snapshot_date,omitempty"`
	MetricsSnapshotsCount   int     `json:"metrics_snapshots_count"`
	GeneratedAt             string  `json:"generated_at"`
}

func toMonitoringSummaryDTO(s domain.MonitoringSummary) monitoringSummaryDTO {
	dto := monitoringSummaryDTO{
		TotalPages:            s.TotalPages,
		PagesWithScores:       s.PagesWithScores,
		AlertsLast24h:         s.AlertsLast24h,
		AlertsLast7d:          s.AlertsLast7d,
		MetricsSnapshotsCount: s.MetricsSnapshotsCount,
		GeneratedAt:           s.GeneratedAt.Format(time.RFC3339),
	}
	if s.LastMetricsSnapshotDate != nil {
		d := s.LastMetricsSnapshotDate.Format(time.DateOnly)
		dto.LastMetricsSnapshotDate = &d
	}
	return dto
}

type pageMetricsSnapshotDTO struct {
	Date         string  `json:"date"`
	AdsCount     int     `json:"ads_count"`
	ShopScore    float64 `json:"shop_score"`
	Tier         string  `json:"tier"`
	ProductCount *int    `json:"product_count,omitempty"`
}

func toPageMetricsHistoryDTO(r domain.PageMetricsHistoryResult) []pageMetricsSnapshotDTO {
	out := make([]pageMetricsSnapshotDTO, 0, len(r.Snapshots))
	for _, s := range r.Snapshots {
		out = append(out, pageMetricsSnapshotDTO{
			Date:         s.Date.Format(time.DateOnly),
			AdsCount:     s.AdsCount,
			ShopScore:    s.ShopScore,
			Tier:         string(domain.ScoreToTier(s.ShopScore)),
			ProductCount: s.ProductCount,
		})
	}
	return out
}

type blacklistEntryDTO struct {
	AdvertiserID string `json:"advertiser_id"`
	Reason       string `json:"reason"`
	CreatedAt    string `json:"created_at"`
}

func toBlacklistEntryDTO(e domain.BlacklistEntry) blacklistEntryDTO {
	return blacklistEntryDTO{AdvertiserID: e.AdvertiserID, Reason: e.Reason, CreatedAt: e.CreatedAt.Format(time.RFC3339)}
}
