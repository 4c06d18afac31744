package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github/itish2003/caseqa/metrics"
)

// PostgresLocator reads the same (id, gcs_uri) table from PostgreSQL. It is
// meant for local runs against a mirror of the BigQuery table.
type PostgresLocator struct {
	db     *sql.DB
	query  string
	strict bool
	logger *zap.Logger
}

// NewPostgresLocator creates a locator over table, which may be schema
// qualified ("cases.documents").
func NewPostgresLocator(db *sql.DB, table string, strict bool, log *zap.Logger) *PostgresLocator {
	return &PostgresLocator{
		db:     db,
		query:  fmt.Sprintf("SELECT gcs_uri FROM %s WHERE id = $1", quoteTable(table)),
		strict: strict,
		logger: log.With(zap.String("backend", "postgres")),
	}
}

// OpenPostgres opens a lib/pq connection pool for dsn.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	return db, nil
}

// Query returns the SQL statement issued for every lookup.
func (l *PostgresLocator) Query() string {
	return l.query
}

func (l *PostgresLocator) Locate(ctx context.Context, caseID int64) (string, error) {
	locations, err := l.read(ctx, caseID)
	if err != nil {
		l.logger.Error("Error fetching GCS URI from PostgreSQL",
			zap.Int64("process_number", caseID),
			zap.Error(err),
		)
		metrics.DocumentLookups.WithLabelValues("postgres", "error").Inc()
		return "", &LookupError{CaseID: caseID, Err: err}
	}

	return resolveLocation(caseID, locations, l.strict, "postgres", l.logger)
}

func (l *PostgresLocator) read(ctx context.Context, caseID int64) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, l.query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []string
	for len(locations) < maxLocationRows && rows.Next() {
		var uri sql.NullString
		if err := rows.Scan(&uri); err != nil {
			return nil, err
		}
		locations = append(locations, uri.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
