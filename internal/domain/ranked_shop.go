package domain

// RankedShop is a read-model projection joining a page's latest score with
// its display info, produced by the ranked-shop repository per
// RankingCriteria (§4.10).
type RankedShop struct {
	PageID  string
	Score   float64
	Tier    Tier
	URL     *URL
	Country *Country
	Name    *string
}

// RankedShopsResult bundles a page of ranked shops with the total count
// matching the same filters (weak read-consistency with the list under
// concurrent writes is acceptable per the concurrency model).
//
// HasMore must always satisfy offset+len(Shops) < Total (§8 invariant 7);
// use NewRankedShopsResult to compute it rather than setting it by hand.
type RankedShopsResult struct {
	Shops   []RankedShop
	Total   int
	HasMore bool
}

// NewRankedShopsResult builds a RankedShopsResult with HasMore derived from
// offset, the page of shops, and the total matching count.
func NewRankedShopsResult(shops []RankedShop, total, offset int) RankedShopsResult {
	return RankedShopsResult{
		Shops:   shops,
		Total:   total,
		HasMore: offset+len(shops) < total,
	}
}
