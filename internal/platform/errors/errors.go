// Package errors provides the structured error taxonomy used across the
// analysis pipeline, adapters, and HTTP API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code.
type ErrorCode string

const (
	// Validation — bad URL, bad country/language/currency, bad category,
	// bad scan id, bad payment method, bad page-state transition, bad
	// ranking criteria.
	ErrCodeValidation ErrorCode = "VAL_1001"

	// NotFound — entity lookup miss.
	ErrCodeNotFound ErrorCode = "RES_2001"

	// UpstreamTransient — ads-library 5xx, network error, timeout.
	ErrCodeUpstreamTransient ErrorCode = "UPS_3001"

	// UpstreamAuth — 401/403 from the ads library.
	ErrCodeUpstreamAuth ErrorCode = "UPS_3002"

	// UpstreamRateLimit — 429 from the ads library.
	ErrCodeUpstreamRateLimit ErrorCode = "UPS_3003"

	// ScrapingBlocked — 403 from the target site or a captcha page.
	ErrCodeScrapingBlocked ErrorCode = "UPS_3004"

	// Blacklisted — the advertiser behind the requested page is on the
	// operator blacklist; the page is hidden from the API as if absent.
	ErrCodeBlacklisted ErrorCode = "RES_2002"

	// SitemapNotFound — no sitemap under any probed path. Recovered
	// locally by callers; this code exists for completeness of the log
	// trail, not because it is expected to reach an HTTP boundary.
	ErrCodeSitemapNotFound ErrorCode = "SCAN_4001"

	// SitemapParse — malformed sitemap XML.
	ErrCodeSitemapParse ErrorCode = "SCAN_4002"

	// Repository — underlying store error.
	ErrCodeRepository ErrorCode = "SVC_5001"

	// TaskDispatch — queue unavailable.
	ErrCodeTaskDispatch ErrorCode = "SVC_5002"

	// Internal — unexpected failure with no more specific classification.
	ErrCodeInternal ErrorCode = "SVC_5003"

	// RateLimitExceeded — caller exceeded this service's own inbound request
	// budget, as distinct from ErrCodeUpstreamRateLimit (the ads library's).
	ErrCodeRateLimitExceeded ErrorCode = "SVC_5004"
)

// ServiceError represents a structured error with code, message, and HTTP status.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new ServiceError.
func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with a ServiceError.
func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Validation builds a 400 validation error scoped to one field.
func Validation(field, reason string) *ServiceError {
	return New(ErrCodeValidation, reason, http.StatusBadRequest).
		WithDetails("field", field)
}

// NotFound builds a 404 entity-not-found error.
func NotFound(entity, id string) *ServiceError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound).
		WithDetails("entity", entity).
		WithDetails("id", id)
}

// Blacklisted builds a 403 error for a page whose advertiser is on the
// operator blacklist; callers present this the same as NotFound to API
// consumers that don't otherwise need the reason, but the reason sits in
// Details for internal logs.
func Blacklisted(advertiserID string) *ServiceError {
	return New(ErrCodeBlacklisted, "page advertiser is blacklisted", http.StatusForbidden).
		WithDetails("advertiser_id", advertiserID)
}

// UpstreamTransient wraps a retried-and-exhausted transient ads-library failure.
func UpstreamTransient(operation string, err error) *ServiceError {
	return Wrap(ErrCodeUpstreamTransient, "upstream request failed", http.StatusBadGateway, err).
		WithDetails("operation", operation)
}

// UpstreamTimeout is UpstreamTransient's 504 sibling for deadline exhaustion.
func UpstreamTimeout(operation string) *ServiceError {
	return New(ErrCodeUpstreamTransient, "upstream request timed out", http.StatusGatewayTimeout).
		WithDetails("operation", operation)
}

// UpstreamAuth builds a non-retryable 401 for ads-library auth failures.
func UpstreamAuth(err error) *ServiceError {
	return Wrap(ErrCodeUpstreamAuth, "ads library rejected credentials", http.StatusUnauthorized, err)
}

// UpstreamRateLimit builds a 429 carrying the advisory retry-after duration.
func UpstreamRateLimit(retryAfterSeconds int) *ServiceError {
	return New(ErrCodeUpstreamRateLimit, "ads library rate limit exceeded", http.StatusTooManyRequests).
		WithDetails("retry_after_seconds", retryAfterSeconds)
}

// ScrapingBlocked builds a non-retryable 403 for a blocked scrape target.
func ScrapingBlocked(url string) *ServiceError {
	return New(ErrCodeScrapingBlocked, "target site blocked the request", http.StatusForbidden).
		WithDetails("url", url)
}

// SitemapNotFound records that no sitemap was discovered; callers recover
// locally (product_count=0) rather than surface this as an HTTP error.
func SitemapNotFound(host string) *ServiceError {
	return New(ErrCodeSitemapNotFound, "no sitemap discovered", http.StatusOK).
		WithDetails("host", host)
}

// SitemapParse records a malformed sitemap document; the caller skips it
// and continues with the remaining sitemaps.
func SitemapParse(url string, err error) *ServiceError {
	return Wrap(ErrCodeSitemapParse, "sitemap parse failed", http.StatusOK, err).
		WithDetails("url", url)
}

// Repository wraps an underlying store error.
func Repository(operation string, err error) *ServiceError {
	return Wrap(ErrCodeRepository, "repository operation failed", http.StatusInternalServerError, err).
		WithDetails("operation", operation)
}

// TaskDispatch wraps a queue-unavailable failure.
func TaskDispatch(task string, err error) *ServiceError {
	return Wrap(ErrCodeTaskDispatch, "task dispatch failed", http.StatusServiceUnavailable, err).
		WithDetails("task", task)
}

// Internal wraps an unclassified failure.
func Internal(message string, err error) *ServiceError {
	return Wrap(ErrCodeInternal, message, http.StatusInternalServerError, err)
}

// RateLimitExceeded builds a 429 for a caller that exceeded this service's
// own request budget (the inbound API rate limiter, not an upstream one).
func RateLimitExceeded(limit int, window string) *ServiceError {
	return New(ErrCodeRateLimitExceeded, "rate limit exceeded", http.StatusTooManyRequests).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// IsServiceError checks if an error is a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// GetServiceError extracts a ServiceError from an error chain.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// GetHTTPStatus returns the HTTP status code for an error.
func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is a NotFound ServiceError.
func IsNotFound(err error) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == ErrCodeNotFound
}

// IsRetryable reports whether err belongs to the retryable-error set named
// in §7: upstream-transient and upstream-rate-limit.
func IsRetryable(err error) bool {
	se := GetServiceError(err)
	if se == nil {
		return false
	}
	return se.Code == ErrCodeUpstreamTransient || se.Code == ErrCodeUpstreamRateLimit
}
