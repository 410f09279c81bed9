package usecase

import (
	"context"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/ports"
)

// DeepPageAnalysisResult is the contract result of DeepPageAnalysis.Execute
// (§4.3).
type DeepPageAnalysisResult struct {
	AdsFound                 int
	AdsSaved                 int
	DestinationURL           *string
	WebsiteAnalysisDispatched bool
}

// DeepPageAnalysis implements the deep-page-analysis use case: fetch
// detailed ads for one page, persist them, and dispatch site analysis on
// the best destination URL found.
type DeepPageAnalysis struct {
	pages   ports.PageRepository
	scans   ports.ScanRepository
	ads     ports.AdRepository
	library ports.AdsLibraryClient
	tasks   ports.TaskDispatcher
	ids     ports.IDGenerator
	clock   ports.Clock
}

// NewDeepPageAnalysis wires a DeepPageAnalysis use case.
func NewDeepPageAnalysis(pages ports.PageRepository, scans ports.ScanRepository, ads ports.AdRepository, library ports.AdsLibraryClient, tasks ports.TaskDispatcher, ids ports.IDGenerator, clock ports.Clock) *DeepPageAnalysis {
	return &DeepPageAnalysis{pages: pages, scans: scans, ads: ads, library: library, tasks: tasks, ids: ids, clock: clock}
}

// destinationCandidate tracks one extracted URL with its tie-break weight.
type destinationCandidate struct {
	url      string
	priority int
}

// Execute runs deep analysis of one page's ads, per §4.3's algorithm.
func (uc *DeepPageAnalysis) Execute(ctx context.Context, pageID string, country domain.Country, scanID string) (DeepPageAnalysisResult, error) {
	page, err := uc.pages.Get(ctx, pageID)
	if err != nil {
		return DeepPageAnalysisResult{}, errors.NotFound("page", pageID)
	}

	now := uc.clock.Now()
	scan := domain.NewScan(scanID, pageID, domain.ScanFull, 0, now)
	scan.Start(now)
	if err := uc.scans.Create(ctx, scan); err != nil {
		return DeepPageAnalysisResult{}, errors.Repository("create_scan", err)
	}

	raws, err := uc.library.GetByPage(ctx, page.AdvertiserID, country)
	if err != nil {
		scan.Fail(err.Error(), uc.clock.Now())
		_ = uc.scans.Update(ctx, scan)
		return DeepPageAnalysisResult{}, err
	}

	adEntities := convertRawAds(pageID, raws, uc.ids, nil)

	var best *destinationCandidate
	for i, raw := range raws {
		if i >= len(adEntities) {
			break
		}
		candidate, priority, ok := extractPrioritizedURL(raw)
		if !ok {
			continue
		}
		if best == nil || priority > best.priority {
			best = &destinationCandidate{url: candidate, priority: priority}
		}
	}

	if len(adEntities) > 0 {
		if err := uc.ads.UpsertBatch(ctx, adEntities); err != nil {
			scan.Fail(err.Error(), uc.clock.Now())
			_ = uc.scans.Update(ctx, scan)
			return DeepPageAnalysisResult{}, errors.Repository("upsert_ads", err)
		}
	}

	active, total := countAdsByStatus(adEntities)
	page.UpdateAdsCount(active, total, now)
	if err := uc.pages.Update(ctx, page); err != nil {
		scan.Fail(err.Error(), uc.clock.Now())
		_ = uc.scans.Update(ctx, scan)
		return DeepPageAnalysisResult{}, errors.Repository("update_page", err)
	}

	dispatched := false
	var destinationURL *string
	if best != nil {
		if err := uc.tasks.Enqueue(ctx, ports.Task{
			Kind: ports.TaskSiteAnalysis,
			Payload: map[string]any{
				"page_id": pageID,
				"url":     best.url,
			},
		}); err != nil {
			scan.Fail(err.Error(), uc.clock.Now())
			_ = uc.scans.Update(ctx, scan)
			return DeepPageAnalysisResult{}, errors.TaskDispatch("site_analysis", err)
		}
		dispatched = true
		destinationURL = &best.url
	}

	scan.Complete(domain.ScanResult{
		AdsFound: len(raws),
		NewAds:   len(adEntities),
	}, uc.clock.Now())
	if err := uc.scans.Update(ctx, scan); err != nil {
		return DeepPageAnalysisResult{}, errors.Repository("complete_scan", err)
	}

	return DeepPageAnalysisResult{
		AdsFound:                  len(raws),
		AdsSaved:                  len(adEntities),
		DestinationURL:            destinationURL,
		WebsiteAnalysisDispatched: dispatched,
	}, nil
}

// extractPrioritizedURL picks a destination candidate trying link_url, then
// link_title, then link_caption in that order, per §4.3's extraction
// precedence. Only link_title-derived URLs carry the higher tie-break
// weight (2); link_url and link_caption both carry weight 1, so a
// link_url candidate on one ad does not out-rank a link_title candidate
// on another when choosing the best URL across a page's ads.
func extractPrioritizedURL(raw ports.RawAd) (string, int, bool) {
	if link := firstOf(raw.LinkURLs); link != "" {
		if normalized, ok := normalizeURLCandidate(link); ok {
			return normalized, 1, true
		}
	}
	if title := firstOf(raw.LinkTitles); title != "" {
		if normalized, ok := normalizeURLCandidate(title); ok {
			return normalized, 2, true
		}
	}
	if caption := firstOf(raw.LinkCaptions); caption != "" {
		if normalized, ok := normalizeURLCandidate(caption); ok {
			return normalized, 1, true
		}
	}
	return "", 0, false
}
