package query

import (
	"fmt"

	"mercator-hq/callisto/pkg/evidence"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"started_at":  true,
	"ended_at":    true,
	"recorded_at": true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidStatuses contains the terminal statuses a query may filter on.
// OPEN spans never reach the archive, so "open" is not queryable.
var ValidStatuses = map[string]bool{
	"ended_ok":    true,
	"ended_error": true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}

	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	// A control id filter without a framework is ambiguous: control ids are
	// only unique within their framework.
	if q.ControlID != "" && q.Framework == "" {
		return evidence.NewQueryError(q, fmt.Errorf("control_id filter requires a framework"))
	}

	if q.Status != "" && !ValidStatuses[q.Status] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid status: %s (must be 'ended_ok' or 'ended_error')", q.Status))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "started_at"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
