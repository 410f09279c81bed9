package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shopsignal/platform/internal/domain"
)

// rankedShops implements the ranked-shop read model's dynamic filter
// composition (§4.10) with jmoiron/sqlx, since the optional tier/
// min-score/country predicates make a single static query impractical.
// Conditions are built with `?` placeholders and rebound to the driver's
// positional syntax by sqlx.DB.Rebind.
func rankedShops(ctx context.Context, db *sql.DB, criteria domain.RankingCriteria) (domain.RankedShopsResult, error) {
	sqlxDB := sqlx.NewDb(db, "postgres")

	var (
		conditions []string
		args       []any
	)
	if criteria.Tier != nil {
		if lo, hi, ok := criteria.Tier.TierScoreRange(); ok {
			upper := "score < ?"
			if *criteria.Tier == domain.TierXXL {
				upper = "score <= ?"
			}
			conditions = append(conditions, "score >= ?", upper)
			args = append(args, lo, hi)
		}
	}
	if criteria.MinScore != nil {
		conditions = append(conditions, "score >= ?")
		args = append(args, *criteria.MinScore)
	}
	if criteria.Country != nil {
		conditions = append(conditions, "country = ?")
		args = append(args, string(*criteria.Country))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := sqlxDB.Rebind(`SELECT COUNT(*) FROM pages` + where)
	if err := sqlxDB.GetContext(ctx, &total, countQuery, args...); err != nil {
		return domain.RankedShopsResult{}, err
	}

	listQuery := sqlxDB.Rebind(pageSelectColumns + ` FROM pages` + where + ` ORDER BY score DESC, created_at DESC LIMIT ? OFFSET ?`)
	listArgs := append(append([]any{}, args...), criteria.Limit, criteria.Offset)

	rows, err := sqlxDB.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return domain.RankedShopsResult{}, err
	}
	defer rows.Close()

	var shops []domain.RankedShop
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return domain.RankedShopsResult{}, err
		}
		shop := domain.RankedShop{
			PageID:  page.ID,
			Score:   page.Score,
			Tier:    domain.ScoreToTier(page.Score),
			URL:     &page.URL,
			Country: page.Country,
		}
		shops = append(shops, shop)
	}

	return domain.NewRankedShopsResult(shops, total, criteria.Offset), rows.Err()
}
