package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopsignal/platform/internal/platform/database"
	platerrors "github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/platform/logging"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the structured error taxonomy (§6's status table) onto an
// HTTP response using each error's HTTPStatus: validation → 400, not-found →
// 404, blacklisted and scraping-blocked → 403, upstream-rate-limit → 429
// with Retry-After, upstream-auth → 401, upstream-timeout → 504, other
// upstream → 502, task dispatch → 503, repository and internal → 500. An
// error outside the taxonomy → 500.
func writeError(ctx context.Context, w http.ResponseWriter, log *logging.Logger, err error) {
	se := platerrors.GetServiceError(err)
	if se == nil {
		log.Error(ctx, "unclassified httpapi error", err, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if se.Code == platerrors.ErrCodeUpstreamRateLimit {
		if retryAfter, ok := se.Details["retry_after_seconds"].(int); ok && retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
	}

	writeJSON(w, se.HTTPStatus, map[string]any{
		"error":   se.Message,
		"code":    se.Code,
		"details": se.Details,
	})
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func floatQueryParam(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// pagination reads limit/offset query params and clamps them to sane bounds
// via the shared repository-adapter pagination rules, so a client can't ask
// a list endpoint to pull an unbounded page.
func pagination(r *http.Request, defaultLimit, maxLimit int) database.PaginationParams {
	limit := intQueryParam(r, "limit", defaultLimit)
	offset := intQueryParam(r, "offset", 0)
	return database.NewPagination(limit, offset, maxLimit)
}
