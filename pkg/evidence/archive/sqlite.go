package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/callisto/pkg/evidence"
)

// SQLiteConfig contains configuration for the SQLite archive backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the SQLite driver: "sqlite3" (cgo) or "sqlite"
	// (pure Go). Default: "sqlite3"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/evidence.db",
		Driver:       "sqlite3",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteArchive implements the Storage interface using SQLite.
type SQLiteArchive struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteArchive creates a new SQLite archive backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteArchive(config *SQLiteConfig) (*SQLiteArchive, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite3"
	}

	logger := slog.Default().With("component", "evidence.archive.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteArchive{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite archive initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteArchive) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists an evidence record. Store is idempotent per span id:
// redelivering a batch after a partial failure cannot duplicate rows.
func (s *SQLiteArchive) Store(ctx context.Context, record *evidence.EvidenceRecord) error {
	inputs, _ := json.Marshal(record.Inputs)
	outputs, _ := json.Marshal(record.Outputs)

	var errorMessage, errorKind interface{}
	if record.Error != nil {
		errorMessage = record.Error.Message
		errorKind = record.Error.Kind
	}

	query := `
		INSERT INTO evidence_spans (
			span_id,
			framework, control_id, control_title, citation,
			correlation_key,
			status, started_at, ended_at, recorded_at,
			inputs, outputs,
			error_message, error_kind,
			catalog_version,
			content_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(span_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		record.SpanID,
		record.Framework, record.ControlID, record.ControlTitle, record.Citation,
		record.CorrelationKey,
		string(record.Status), record.StartedAt, record.EndedAt, record.RecordedAt,
		string(inputs), string(outputs),
		errorMessage, errorKind,
		record.CatalogVersion,
		RecordHash(record),
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves evidence records matching the query filters.
func (s *SQLiteArchive) Query(ctx context.Context, query *evidence.Query) ([]*evidence.EvidenceRecord, error) {
	sqlQuery, args := s.buildSelect(query, selectColumns)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.EvidenceRecord{}
	for rows.Next() {
		record, err := s.scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// QueryStream returns a channel of evidence records for memory-efficient
// streaming of large result sets. Both channels are closed when the query
// completes or errors.
func (s *SQLiteArchive) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.EvidenceRecord, <-chan error, error) {
	recordsCh := make(chan *evidence.EvidenceRecord, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := s.buildSelect(query, selectColumns)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			record, err := s.scanRow(rows)
			if err != nil {
				errCh <- evidence.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *SQLiteArchive) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM evidence_spans"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes evidence records matching the query filters.
// Returns the number of records deleted.
func (s *SQLiteArchive) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "DELETE FROM evidence_spans"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Close releases resources held by the archive backend.
func (s *SQLiteArchive) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite archive closed")
	return nil
}

const selectColumns = `
	span_id,
	framework, control_id, control_title, citation,
	correlation_key,
	status, started_at, ended_at, recorded_at,
	inputs, outputs,
	error_message, error_kind,
	catalog_version
`

// sortColumns whitelists the sortable columns; anything else falls back to
// started_at so filter input can never reach the ORDER BY clause raw.
var sortColumns = map[string]string{
	"started_at":  "started_at",
	"ended_at":    "ended_at",
	"recorded_at": "recorded_at",
}

// buildSelect builds a full SELECT with filtering, sorting, and pagination.
func (s *SQLiteArchive) buildSelect(query *evidence.Query, columns string) (string, []interface{}) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "SELECT " + columns + " FROM evidence_spans"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	sortBy, ok := sortColumns[query.SortBy]
	if !ok {
		sortBy = "started_at"
	}
	sortOrder := "DESC"
	if query.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	return sqlQuery, args
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func (s *SQLiteArchive) buildWhereClause(query *evidence.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, *query.EndTime)
	}

	if query.Framework != "" {
		conditions = append(conditions, "framework = ?")
		args = append(args, query.Framework)
	}
	if query.ControlID != "" {
		conditions = append(conditions, "control_id = ?")
		args = append(args, query.ControlID)
	}
	if query.CorrelationKey != "" {
		conditions = append(conditions, "correlation_key = ?")
		args = append(args, query.CorrelationKey)
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// scanRow scans a database row into an EvidenceRecord.
func (s *SQLiteArchive) scanRow(row *sql.Rows) (*evidence.EvidenceRecord, error) {
	var record evidence.EvidenceRecord
	var status, inputs, outputs string
	var controlTitle, citation, catalogVersion sql.NullString
	var errorMessage, errorKind sql.NullString

	err := row.Scan(
		&record.SpanID,
		&record.Framework, &record.ControlID, &controlTitle, &citation,
		&record.CorrelationKey,
		&status, &record.StartedAt, &record.EndedAt, &record.RecordedAt,
		&inputs, &outputs,
		&errorMessage, &errorKind,
		&catalogVersion,
	)
	if err != nil {
		return nil, err
	}

	record.Status = evidence.SpanStatus(status)
	record.ControlTitle = controlTitle.String
	record.Citation = citation.String
	record.CatalogVersion = catalogVersion.String

	if errorMessage.Valid {
		record.Error = &evidence.ErrorDetail{
			Message: errorMessage.String,
			Kind:    errorKind.String,
		}
	}

	if inputs != "" && inputs != "null" {
		json.Unmarshal([]byte(inputs), &record.Inputs)
	}
	if outputs != "" && outputs != "null" {
		json.Unmarshal([]byte(outputs), &record.Outputs)
	}

	return &record, nil
}
