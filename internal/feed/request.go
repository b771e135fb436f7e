package feed

import (
	"errors"
	"fmt"
	"time"
)

// Pagination defaults and bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Invalid request errors. All are rejected before any scoring work.
var (
	ErrInvalidPageSize   = errors.New("page size must be positive")
	ErrInvalidPageNumber = errors.New("page number must be positive")
	ErrUnknownAlgorithm  = errors.New("unknown feed algorithm")
	ErrInvalidDateRange  = errors.New("from date must not be after to date")
	ErrInvalidSortBy     = errors.New("unknown sort key")
	ErrInvalidSortOrder  = errors.New("unknown sort order")
	ErrInvalidTimeFilter = errors.New("unknown time filter")
)

// Sort keys for explicit sort options.
const (
	SortByScore     = "score"
	SortByPublished = "published"
)

// Sort orders.
const (
	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// Time filters bound candidate publish dates relative to now.
const (
	TimeFilterAll   = "all"
	TimeFilterHour  = "hour"
	TimeFilterDay   = "day"
	TimeFilterWeek  = "week"
	TimeFilterMonth = "month"
)

// SortOptions refine candidate selection and ordering beyond the algorithm
// defaults.
type SortOptions struct {
	SortBy          string `json:"sort_by,omitempty"`     // score (default) or published
	Order           string `json:"order,omitempty"`       // desc (default) or asc
	TimeFilter      string `json:"time_filter,omitempty"` // all (default), hour, day, week, month
	Category        string `json:"category,omitempty"`    // restrict to one category
	Source          string `json:"source,omitempty"`      // restrict to one source
	FollowedOnly    bool   `json:"followed_only,omitempty"`
	IncludeTrending bool   `json:"include_trending,omitempty"`
}

// Request describes one feed page request.
type Request struct {
	PageSize   int         `json:"page_size,omitempty"`
	PageNumber int         `json:"page_number,omitempty"`
	Algorithm  string      `json:"algorithm,omitempty"`
	Categories []string    `json:"categories,omitempty"`
	FromDate   time.Time   `json:"from_date,omitempty"`
	ToDate     time.Time   `json:"to_date,omitempty"`
	Sort       SortOptions `json:"sort_options,omitempty"`
}

// Normalize validates the request and fills defaults, returning the
// resolved algorithm. Validation failures are InvalidRequest errors; no
// partial response follows them.
func (r *Request) Normalize() (Algorithm, error) {
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageNumber == 0 {
		r.PageNumber = 1
	}
	if r.PageSize < 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPageSize, r.PageSize)
	}
	if r.PageNumber < 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPageNumber, r.PageNumber)
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}

	if !r.FromDate.IsZero() && !r.ToDate.IsZero() && r.FromDate.After(r.ToDate) {
		return "", fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			r.FromDate.Format(time.RFC3339), r.ToDate.Format(time.RFC3339))
	}

	switch r.Sort.SortBy {
	case "", SortByScore, SortByPublished:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortBy, r.Sort.SortBy)
	}
	switch r.Sort.Order {
	case "", OrderDesc, OrderAsc:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, r.Sort.Order)
	}
	switch r.Sort.TimeFilter {
	case "", TimeFilterAll, TimeFilterHour, TimeFilterDay, TimeFilterWeek, TimeFilterMonth:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFilter, r.Sort.TimeFilter)
	}

	return ParseAlgorithm(r.Algorithm)
}

// timeFilterBound converts the time filter to a lower publish-date bound.
// Returns the zero time for the unbounded filter.
func (r *Request) timeFilterBound(now time.Time) time.Time {
	switch r.Sort.TimeFilter {
	case TimeFilterHour:
		return now.Add(-time.Hour)
	case TimeFilterDay:
		return now.Add(-24 * time.Hour)
	case TimeFilterWeek:
		return now.Add(-7 * 24 * time.Hour)
	case TimeFilterMonth:
		return now.Add(-30 * 24 * time.Hour)
	}
	return time.Time{}
}

// effectiveFrom resolves the lower publish-date bound from the explicit
// from date and the time filter, whichever is tighter.
func (r *Request) effectiveFrom(now time.Time) time.Time {
	bound := r.timeFilterBound(now)
	if bound.IsZero() {
		return r.FromDate
	}
	if r.FromDate.IsZero() || bound.After(r.FromDate) {
		return bound
	}
	return r.FromDate
}
