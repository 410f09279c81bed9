package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/database"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
)

type handlers struct {
	deps Deps
}

// --- Pages -----------------------------------------------------------------

func (h *handlers) listPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := pagination(r, 50, 200)

	pages, err := h.deps.Pages.List(ctx, page.Limit, page.Offset)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("list_pages", err))
		return
	}

	out := make([]pageDTO, 0, len(pages))
	for _, p := range pages {
		out = append(out, toPageDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": out})
}

func (h *handlers) getPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	if err := database.ValidateID(id); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("id", err.Error()))
		return
	}

	page, err := h.deps.Pages.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}

	if h.deps.Blacklist != nil {
		blacklisted, blErr := h.deps.Blacklist.IsBlacklisted(ctx, page.AdvertiserID)
		if blErr == nil && blacklisted {
			writeError(ctx, w, h.deps.Log, platerrors.Blacklisted(page.AdvertiserID))
			return
		}
	}

	writeJSON(w, http.StatusOK, toPageDTO(page))
}

func (h *handlers) rankedPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var tier *domain.Tier
	if raw := q.Get("tier"); raw != "" {
		t := domain.Tier(raw)
		tier = &t
	}
	var country *domain.Country
	if raw := q.Get("country"); raw != "" {
		c, err := domain.NewCountry(raw)
		if err != nil {
			writeError(ctx, w, h.deps.Log, platerrors.Validation("country", err.Error()))
			return
		}
		country = &c
	}

	page := pagination(r, 50, 200)
	result, err := h.deps.RankedShops.Execute(ctx, page.Limit, page.Offset, tier, floatQueryParam(r, "min_score"), country)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}

	shops := make([]rankedShopDTO, 0, len(result.Shops))
	for _, s := range result.Shops {
		shops = append(shops, toRankedShopDTO(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shops": shops, "total": result.Total, "has_more": result.HasMore})
}

func (h *handlers) topPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shops, err := h.deps.RankedShops.Top(ctx, intQueryParam(r, "limit", 10))
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	out := make([]rankedShopDTO, 0, len(shops))
	for _, s := range shops {
		out = append(out, toRankedShopDTO(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shops": out})
}

func (h *handlers) getPageScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	page, err := h.deps.Pages.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page_id": page.ID,
		"score":   page.Score,
		"tier":    string(domain.ScoreToTier(page.Score)),
	})
}

func (h *handlers) recomputePageScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	result, err := h.deps.ComputeScore.Execute(ctx, id)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}

	alerts := make([]alertDTO, 0, len(result.Alerts))
	for _, a := range result.Alerts {
		alerts = append(alerts, toAlertDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":      result.Score,
		"tier":       string(result.Tier),
		"components": result.Components,
		"alerts":     alerts,
	})
}

func (h *handlers) pageMetricsHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	result, err := h.deps.MetricsHistory.Execute(ctx, id, intQueryParam(r, "days", 30), intQueryParam(r, "limit", 90))
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": toPageMetricsHistoryDTO(result)})
}

// --- Products ----------------------------------------------------------------

func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	page := pagination(r, 50, 200)
	products, err := h.deps.Products.ListByPage(ctx, id, page.Limit, page.Offset)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("list_products", err))
		return
	}
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

// productInsights summarizes price range and availability over a page's
// catalog; this is a read-side aggregation with no dedicated use case,
// computed directly from the repository's product list like the other
// pass-through endpoints in this file.
func (h *handlers) productInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	page := pagination(r, 100, 500)

	products, err := h.deps.Products.ListByPage(ctx, id, page.Limit, page.Offset)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("product_insights", err))
		return
	}

	total, err := h.deps.Products.CountByPage(ctx, id)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("product_insights_count", err))
		return
	}

	var priceLow, priceHigh *float64
	available, unavailable := 0, 0
	for _, p := range products {
		if p.PriceLow != nil && (priceLow == nil || *p.PriceLow < *priceLow) {
			v := *p.PriceLow
			priceLow = &v
		}
		if p.PriceHigh != nil && (priceHigh == nil || *p.PriceHigh > *priceHigh) {
			v := *p.PriceHigh
			priceHigh = &v
		}
		switch {
		case p.IsAvailable == nil:
		case *p.IsAvailable:
			available++
		default:
			unavailable++
		}
	}

	sortBy := r.URL.Query().Get("sort_by")
	sortProducts(products, sortBy)
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_products":    total,
		"available_count":   available,
		"unavailable_count": unavailable,
		"price_low":         priceLow,
		"price_high":        priceHigh,
		"products":          out,
	})
}

// sortProducts orders an insights response by the requested field; an
// unrecognized or empty sort_by leaves the repository's own order (first
// seen) intact.
func sortProducts(products []domain.Product, sortBy string) {
	switch sortBy {
	case "price_asc":
		sort.SliceStable(products, func(i, j int) bool {
			return priceOrZero(products[i].PriceLow) < priceOrZero(products[j].PriceLow)
		})
	case "price_desc":
		sort.SliceStable(products, func(i, j int) bool {
			return priceOrZero(products[i].PriceHigh) > priceOrZero(products[j].PriceHigh)
		})
	}
}

func priceOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// --- Scans & keyword search --------------------------------------------------

func (h *handlers) getScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	if err := database.ValidateID(id); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("id", err.Error()))
		return
	}

	scan, err := h.deps.Scans.Get(ctx, id)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toScanDTO(scan))
}

type keywordSearchRequest struct {
	Keyword  string  `json:"keyword"`
	Country  string  `json:"country"`
	Language *string `json:"language,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

func (h *handlers) keywordSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req keywordSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("body", "invalid JSON"))
		return
	}

	country, err := domain.NewCountry(req.Country)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("country", err.Error()))
		return
	}

	var language *domain.Language
	if req.Language != nil {
		l, err := domain.NewLanguage(*req.Language)
		if err != nil {
			writeError(ctx, w, h.deps.Log, platerrors.Validation("language", err.Error()))
			return
		}
		language = &l
	}

	result, err := h.deps.KeywordSearch.Execute(ctx, req.Keyword, country, language, req.Limit)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scan_id":   result.ScanID,
		"page_ids":  result.PageIDs,
		"ads_count": result.AdsCount,
		"new_pages": result.NewPages,
	})
}

// --- Alerts ------------------------------------------------------------------

func (h *handlers) listRecentAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alerts, err := h.deps.Alerts.ListRecent(ctx, intQueryParam(r, "limit", 50))
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("list_recent_alerts", err))
		return
	}
	out := make([]alertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (h *handlers) listPageAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pageID := mux.Vars(r)["page_id"]

	page := pagination(r, 50, 200)
	alerts, err := h.deps.Alerts.ListByPage(ctx, pageID, page.Limit, page.Offset)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("list_page_alerts", err))
		return
	}
	out := make([]alertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

// --- Watchlists ----------------------------------------------------------------

type createWatchlistRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

func (h *handlers) createWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("body", "invalid JSON"))
		return
	}
	wl, err := h.deps.WatchlistsUC.Create(ctx, req.OwnerID, req.Name)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWatchlistDTO(wl))
}

func (h *handlers) getWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wl, err := h.deps.Watchlists.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toWatchlistDTO(wl))
}

type renameWatchlistRequest struct {
	Name string `json:"name"`
}

func (h *handlers) renameWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req renameWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("body", "invalid JSON"))
		return
	}
	wl, err := h.deps.WatchlistsUC.Rename(ctx, mux.Vars(r)["id"], req.Name)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toWatchlistDTO(wl))
}

func (h *handlers) deleteWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.deps.WatchlistsUC.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listWatchlistItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.deps.WatchlistsUC.ListItems(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	out := make([]watchlistItemDTO, 0, len(items))
	for _, i := range items {
		out = append(out, toWatchlistItemDTO(i))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type addWatchlistItemRequest struct {
	PageID string `json:"page_id"`
}

func (h *handlers) addWatchlistItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addWatchlistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("body", "invalid JSON"))
		return
	}
	item, err := h.deps.WatchlistsUC.AddItem(ctx, mux.Vars(r)["id"], req.PageID)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWatchlistItemDTO(*item))
}

func (h *handlers) removeWatchlistItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if err := h.deps.WatchlistsUC.RemoveItem(ctx, vars["id"], vars["page_id"]); err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) scanWatchlistNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dispatched, failed, err := h.deps.WatchlistsUC.ScanNow(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dispatched": dispatched, "failed": failed})
}

// --- Blacklist -----------------------------------------------------------------

func (h *handlers) listBlacklist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.deps.Blacklist.List(ctx)
	if err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("list_blacklist", err))
		return
	}
	out := make([]blacklistEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toBlacklistEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

type addBlacklistEntryRequest struct {
	AdvertiserID string `json:"advertiser_id"`
	Reason       string `json:"reason"`
}

func (h *handlers) addBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addBlacklistEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("body", "invalid JSON"))
		return
	}
	if req.AdvertiserID == "" {
		writeError(ctx, w, h.deps.Log, platerrors.Validation("advertiser_id", "required"))
		return
	}
	if err := h.deps.Blacklist.Add(ctx, req.AdvertiserID, req.Reason, time.Now()); err != nil {
		writeError(ctx, w, h.deps.Log, platerrors.Repository("add_blacklist_entry", err))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *handlers) removeBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.deps.Blacklist.Remove(ctx, mux.Vars(r)["advertiser_id"]); err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Monitoring ------------------------------------------------------------------

func (h *handlers) monitoringSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.deps.Monitoring.Execute(ctx)
	if err != nil {
		writeError(ctx, w, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonitoringSummaryDTO(summary))
}
