package usecase

import (
	"context"

	"github.com/shopsignal/platform/internal/domain"
	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/ports"
)

// RankedShops implements the ranked-shop read-model use case (§4.10): a
// thin pass-through to the repository's dynamic-filter query, validating
// the criteria first.
type RankedShops struct {
	pages ports.PageRepository
}

// NewRankedShops wires a RankedShops use case.
func NewRankedShops(pages ports.PageRepository) *RankedShops {
	return &RankedShops{pages: pages}
}

// Execute returns a filtered, paginated, ranked slice of shops.
func (uc *RankedShops) Execute(ctx context.Context, limit, offset int, tier *domain.Tier, minScore *float64, country *domain.Country) (domain.RankedShopsResult, error) {
	criteria, err := domain.NewRankingCriteria(limit, offset, tier, minScore, country)
	if err != nil {
		return domain.RankedShopsResult{}, errors.Validation("ranking_criteria", err.Error())
	}
	result, err := uc.pages.Ranked(ctx, criteria)
	if err != nil {
		return domain.RankedShopsResult{}, errors.Repository("ranked_shops", err)
	}
	return result, nil
}

// Top returns the single highest-ranked shops, uncapped by ranking
// criteria validation (a direct top-N read).
func (uc *RankedShops) Top(ctx context.Context, limit int) ([]domain.RankedShop, error) {
	if limit <= 0 {
		limit = 10
	}
	shops, err := uc.pages.Top(ctx, limit)
	if err != nil {
		return nil, errors.Repository("top_shops", err)
	}
	return shops, nil
}
