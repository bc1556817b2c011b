package query

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/evidence"
)

func TestValidate(t *testing.T) {
	early := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)

	tests := []struct {
		name    string
		query   *evidence.Query
		wantErr bool
	}{
		{"empty query", &evidence.Query{}, false},
		{"full valid query", &evidence.Query{
			StartTime: &early,
			EndTime:   &late,
			Framework: "gdpr",
			ControlID: "Art.15",
			Status:    "ended_ok",
			Limit:     500,
			Offset:    100,
			SortBy:    "started_at",
			SortOrder: "asc",
		}, false},
		{"negative limit", &evidence.Query{Limit: -1}, true},
		{"limit above max", &evidence.Query{Limit: MaxLimit + 1}, true},
		{"limit at max", &evidence.Query{Limit: MaxLimit}, false},
		{"negative offset", &evidence.Query{Offset: -1}, true},
		{"unknown sort field", &evidence.Query{SortBy: "actual_cost"}, true},
		{"unknown sort order", &evidence.Query{SortOrder: "sideways"}, true},
		{"inverted time range", &evidence.Query{StartTime: &late, EndTime: &early}, true},
		{"control id without framework", &evidence.Query{ControlID: "Art.15"}, true},
		{"open status not queryable", &evidence.Query{Status: "open"}, true},
		{"unknown status", &evidence.Query{Status: "success"}, true},
		{"ended_error status", &evidence.Query{Status: "ended_error"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.wantErr {
				var queryErr *evidence.QueryError
				if !errors.As(err, &queryErr) {
					t.Fatalf("Validate() error = %v, want *QueryError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() failed: %v", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &evidence.Query{}
	ApplyDefaults(q)

	if q.Limit != DefaultLimit {
		t.Errorf("default limit = %d, want %d", q.Limit, DefaultLimit)
	}
	if q.SortBy != "started_at" {
		t.Errorf("default sort field = %q, want started_at", q.SortBy)
	}
	if q.SortOrder != "desc" {
		t.Errorf("default sort order = %q, want desc", q.SortOrder)
	}

	// Explicit values survive defaulting.
	q = &evidence.Query{Limit: 7, SortBy: "ended_at", SortOrder: "asc"}
	ApplyDefaults(q)
	if q.Limit != 7 || q.SortBy != "ended_at" || q.SortOrder != "asc" {
		t.Errorf("ApplyDefaults() overwrote explicit values: %+v", q)
	}
}
