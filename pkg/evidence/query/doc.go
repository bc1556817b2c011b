// Package query provides validation and defaulting for evidence queries.
//
// # Query Validation
//
// The validator ensures query parameters are valid before execution:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort field is valid (started_at, ended_at, recorded_at)
//   - Sort order is valid (asc, desc)
//   - Time range is valid (start <= end)
//   - Status is a terminal status (ended_ok, ended_error)
//   - A control_id filter names its framework
//
// # Basic Usage
//
//	q := &evidence.Query{
//	    Framework: "gdpr",
//	    ControlID: "Art.15",
//	    Status:    "ended_error",
//	    Limit:     100,
//	    SortBy:    "started_at",
//	    SortOrder: "desc",
//	}
//
//	query.ApplyDefaults(q)
//	if err := query.Validate(q); err != nil {
//	    return err
//	}
//
//	records, err := arch.Query(ctx, q)
//	if err != nil {
//	    return err
//	}
package query
